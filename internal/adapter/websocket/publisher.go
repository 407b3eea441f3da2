package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/centrifugal/centrifuge"
	"github.com/pscheid92/valo/internal/adapter/metrics"
	"github.com/pscheid92/valo/internal/domain"
)

// Event types sent on a session channel.
const (
	EventState = "state"
	EventImage = "image"
)

type stateEvent struct {
	Type string      `json:"type"`
	View domain.View `json:"view"`
}

type imageEvent struct {
	Type  string          `json:"type"`
	Image domain.ImageRef `json:"image"`
}

// Publisher implements domain.EventPublisher.
type Publisher struct {
	node      *centrifuge.Node
	wsMetrics *metrics.WebSocketMetrics
}

var _ domain.EventPublisher = (*Publisher)(nil)

func NewPublisher(node *centrifuge.Node, wsMetrics *metrics.WebSocketMetrics) *Publisher {
	return &Publisher{node: node, wsMetrics: wsMetrics}
}

func (p *Publisher) PublishState(ctx context.Context, sessionID string, view domain.View) error {
	return p.publish(ctx, sessionID, EventState, stateEvent{Type: EventState, View: view})
}

// PublishImage is skipped while nobody watches the session; images are large
// and the client fetches the current one over HTTP when it connects.
func (p *Publisher) PublishImage(ctx context.Context, sessionID string, image domain.ImageRef) error {
	if !p.HasViewers(sessionID) {
		slog.DebugContext(ctx, "No viewers, skipping image publish", "session_id", sessionID)
		return nil
	}
	return p.publish(ctx, sessionID, EventImage, imageEvent{Type: EventImage, Image: image})
}

// HasViewers reports whether any client is subscribed to the session.
func (p *Publisher) HasViewers(sessionID string) bool {
	stats, err := p.node.PresenceStats(Channel(sessionID))
	return err == nil && stats.NumClients > 0
}

func (p *Publisher) publish(ctx context.Context, sessionID, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	channel := Channel(sessionID)
	if _, err := p.node.Publish(channel, data); err != nil {
		if p.wsMetrics != nil {
			p.wsMetrics.PublishErrors.Inc()
		}
		slog.WarnContext(ctx, "Publish failed", "channel", channel, "event", event, "error", err)
		return fmt.Errorf("publish to channel %s: %w", channel, err)
	}

	if p.wsMetrics != nil {
		p.wsMetrics.MessagesPublished.WithLabelValues(event).Inc()
	}
	return nil
}
