package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// EventSubmissionTurnedIn is published after a new submission version is stored.
	EventSubmissionTurnedIn = "submission.turned_in"
	// EventFeedbackGiven is published after a reviewer responds to a version.
	EventFeedbackGiven = "feedback.given"
)

// SubmissionEvent is the payload of submission lifecycle events.
type SubmissionEvent struct {
	SubmissionID uint      `json:"submission_id"`
	AssignmentID uint      `json:"assignment_id"`
	GroupID      uint      `json:"group_id"`
	Version      int       `json:"version"`
	Status       string    `json:"status"`
	ActorID      uint      `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher fans submission events out to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload SubmissionEvent) error
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewNATSPublisher publishes events on "<prefix>.<event>". A nil connection yields a
// publisher that only logs.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) EventPublisher {
	prefix = strings.Trim(strings.ReplaceAll(prefix, ":", "."), ".")
	if prefix == "" {
		prefix = "capstone"
	}
	return &natsPublisher{
		conn:   conn,
		prefix: prefix,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(ctx context.Context, event string, payload SubmissionEvent) error {
	subject := p.prefix + "." + event
	if p.conn == nil {
		p.logger.Debug().Str("subject", subject).Uint("submission_id", payload.SubmissionID).Msg("nats disabled, event dropped")
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}

	p.logger.Debug().Str("subject", subject).Uint("submission_id", payload.SubmissionID).Msg("event published")
	return nil
}

// publishEvent logs publish failures instead of failing the request.
func publishEvent(ctx context.Context, publisher EventPublisher, logger zerolog.Logger, event string, payload SubmissionEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event, payload); err != nil {
		logger.Warn().Err(err).Str("event", event).Msg("failed to publish event")
	}
}
