package domain

import "fmt"

// Mode is the active editing tab.
type Mode string

const (
	ModeAdjust   Mode = "adjust"
	ModeFilter   Mode = "filter"
	ModeCrop     Mode = "crop"
	ModeRemoveBg Mode = "removebg"
)

// ParseMode validates a mode coming from outside.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAdjust, ModeFilter, ModeCrop, ModeRemoveBg:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	return string(m)
}
