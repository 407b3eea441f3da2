package domain

import "context"

// Outcome is the tagged result of an asynchronous, cancellable call.
type Outcome uint8

const (
	OutcomeSucceeded Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settle classifies a finished call by its own cancellation handle first:
// once ctx is done, the result is cancelled even if a response arrived.
func Settle(ctx context.Context, err error) Outcome {
	if ctx.Err() != nil {
		return OutcomeCancelled
	}
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeSucceeded
}
