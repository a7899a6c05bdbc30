package leaderboardsubscribers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	leaderboardservice "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/application"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/eventbus"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type FakeService struct {
	HandleFunc func(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error
}

func (f *FakeService) GetLeaderboard(ctx context.Context) (*leaderboardservice.Leaderboard, error) {
	return &leaderboardservice.Leaderboard{}, nil
}

func (f *FakeService) RenderChart(ctx context.Context, top int) ([]byte, error) {
	return nil, nil
}

func (f *FakeService) HandleSubmissionRecorded(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
	if f.HandleFunc != nil {
		return f.HandleFunc(ctx, payload)
	}
	return nil
}

var _ leaderboardservice.Service = (*FakeService)(nil)

func newMessage(t *testing.T, payload any) *message.Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(eventbus.MetadataCorrelationID, "corr-123")
	return msg
}

func TestSubscribers_HandleSubmissionRecorded(t *testing.T) {
	tests := []struct {
		name    string
		msg     func(t *testing.T) *message.Message
		handle  func(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error
		wantErr bool
		called  bool
	}{
		{
			name: "forwards decoded payload with correlation id",
			msg: func(t *testing.T) *message.Message {
				return newMessage(t, submissiondomain.SubmissionRecordedPayloadV1{AttemptID: "a1", TeamCode: "TEAM01", Correct: true})
			},
			handle: func(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
				if attr.CorrelationIDFromContext(ctx) != "corr-123" || payload.TeamCode != "TEAM01" || !payload.Correct {
					return errors.New("unexpected event")
				}
				return nil
			},
			called: true,
		},
		{
			name: "malformed payload is dropped",
			msg: func(t *testing.T) *message.Message {
				return message.NewMessage(watermill.NewUUID(), []byte("{not json"))
			},
		},
		{
			name: "service failure nacks",
			msg: func(t *testing.T) *message.Message {
				return newMessage(t, submissiondomain.SubmissionRecordedPayloadV1{Correct: true})
			},
			handle: func(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
				return errors.New("redis down")
			},
			wantErr: true,
			called:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &FakeService{HandleFunc: func(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
				called = true
				if tt.handle != nil {
					return tt.handle(ctx, payload)
				}
				return nil
			}}
			s := NewSubscribers(nil, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

			err := s.HandleSubmissionRecorded(context.Background(), tt.msg(t))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.called, called)
		})
	}
}
