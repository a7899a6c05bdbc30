package submissionevents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/eventbus"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
)

// Publisher publishes submission events on the event bus.
type Publisher struct {
	bus eventbus.EventBus
}

// NewPublisher creates a new Publisher.
func NewPublisher(bus eventbus.EventBus) *Publisher {
	return &Publisher{bus: bus}
}

// PublishSubmissionRecorded publishes a SubmissionRecordedV1 message.
func (p *Publisher) PublishSubmissionRecorded(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", submissiondomain.SubmissionRecordedV1, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(eventbus.MetadataCorrelationID, attr.CorrelationIDFromContext(ctx))
	msg.Metadata.Set("team_code", payload.TeamCode)

	return p.bus.Publish(submissiondomain.SubmissionRecordedV1, msg)
}

// DecodeSubmissionRecorded parses a SubmissionRecordedV1 message.
func DecodeSubmissionRecorded(msg *message.Message) (submissiondomain.SubmissionRecordedPayloadV1, error) {
	var payload submissiondomain.SubmissionRecordedPayloadV1
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s: %w", submissiondomain.SubmissionRecordedV1, err)
	}
	return payload, nil
}
