package leaderboardsubscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	leaderboardservice "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/application"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissionevents "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/events"
	"github.com/medusa-ctf/medusa-backend/pkg/eventbus"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
)

// Subscribers keeps the leaderboard in step with recorded submissions.
type Subscribers struct {
	bus     eventbus.EventBus
	service leaderboardservice.Service
	logger  *slog.Logger
}

// NewSubscribers creates a new Subscribers.
func NewSubscribers(bus eventbus.EventBus, service leaderboardservice.Service, logger *slog.Logger) *Subscribers {
	return &Subscribers{
		bus:     bus,
		service: service,
		logger:  logger,
	}
}

// Start subscribes to submission events until ctx is cancelled.
func (s *Subscribers) Start(ctx context.Context) error {
	if err := s.bus.Subscribe(ctx, submissiondomain.SubmissionRecordedV1, s.HandleSubmissionRecorded); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", submissiondomain.SubmissionRecordedV1, err)
	}
	return nil
}

// HandleSubmissionRecorded decodes the event and forwards it to the service.
// Undecodable messages are dropped so they are not redelivered forever.
func (s *Subscribers) HandleSubmissionRecorded(ctx context.Context, msg *message.Message) error {
	if id := msg.Metadata.Get(eventbus.MetadataCorrelationID); id != "" {
		ctx = attr.WithCorrelationID(ctx, id)
	}

	payload, err := submissionevents.DecodeSubmissionRecorded(msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Dropping malformed submission event",
			attr.ExtractCorrelationID(ctx),
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		return nil
	}

	return s.service.HandleSubmissionRecorded(ctx, payload)
}
