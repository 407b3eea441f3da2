package domain

import "context"

// EventPublisher pushes session changes to the presentation layer.
type EventPublisher interface {
	PublishState(ctx context.Context, sessionID string, view View) error
	PublishImage(ctx context.Context, sessionID string, image ImageRef) error
}
