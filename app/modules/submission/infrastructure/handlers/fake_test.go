package submissionhandlers

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	submissionservice "github.com/medusa-ctf/medusa-backend/app/modules/submission/application"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	SubmitFunc               func(ctx context.Context, cmd submissionservice.SubmitCommand) (*submissionservice.SubmitResult, error)
	GetAttemptStatusFunc     func(ctx context.Context, teamCode string) (*submissionservice.AttemptStatus, error)
	UpdateSubmittedAtFunc    func(ctx context.Context, id uuid.UUID, submittedAt time.Time) (*submissiondb.SubmissionAttempt, error)
	ReverifyFunc             func(ctx context.Context, id uuid.UUID) (*submissiondb.SubmissionAttempt, error)
	RecalculateTeamRoundFunc func(ctx context.Context, teamCode string, round int) (int, error)
	ListAttemptsFunc         func(ctx context.Context, teamCode string) ([]submissiondb.SubmissionAttempt, error)
	ExportXLSXFunc           func(ctx context.Context, w io.Writer) error
}

func (f *FakeService) Submit(ctx context.Context, cmd submissionservice.SubmitCommand) (*submissionservice.SubmitResult, error) {
	if f.SubmitFunc != nil {
		return f.SubmitFunc(ctx, cmd)
	}
	return &submissionservice.SubmitResult{Success: true}, nil
}

func (f *FakeService) GetAttemptStatus(ctx context.Context, teamCode string) (*submissionservice.AttemptStatus, error) {
	if f.GetAttemptStatusFunc != nil {
		return f.GetAttemptStatusFunc(ctx, teamCode)
	}
	return &submissionservice.AttemptStatus{}, nil
}

func (f *FakeService) UpdateSubmittedAt(ctx context.Context, id uuid.UUID, submittedAt time.Time) (*submissiondb.SubmissionAttempt, error) {
	if f.UpdateSubmittedAtFunc != nil {
		return f.UpdateSubmittedAtFunc(ctx, id, submittedAt)
	}
	return &submissiondb.SubmissionAttempt{ID: id, SubmittedAt: submittedAt}, nil
}

func (f *FakeService) Reverify(ctx context.Context, id uuid.UUID) (*submissiondb.SubmissionAttempt, error) {
	if f.ReverifyFunc != nil {
		return f.ReverifyFunc(ctx, id)
	}
	return &submissiondb.SubmissionAttempt{ID: id, Verified: true}, nil
}

func (f *FakeService) RecalculateTeamRound(ctx context.Context, teamCode string, round int) (int, error) {
	if f.RecalculateTeamRoundFunc != nil {
		return f.RecalculateTeamRoundFunc(ctx, teamCode, round)
	}
	return 0, nil
}

func (f *FakeService) ListAttempts(ctx context.Context, teamCode string) ([]submissiondb.SubmissionAttempt, error) {
	if f.ListAttemptsFunc != nil {
		return f.ListAttemptsFunc(ctx, teamCode)
	}
	return nil, nil
}

func (f *FakeService) ExportXLSX(ctx context.Context, w io.Writer) error {
	if f.ExportXLSXFunc != nil {
		return f.ExportXLSXFunc(ctx, w)
	}
	return nil
}

var _ submissionservice.Service = (*FakeService)(nil)
