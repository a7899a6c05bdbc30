package submissionservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Submission Repo
// ------------------------

type FakeSubmissionRepo struct {
	mu    sync.Mutex
	trace []string

	RunInScopeFunc    func(ctx context.Context, teamCode string, key submissiondomain.ChallengeKey, fn submissiondb.ScopeFunc) error
	CountAttemptsFunc func(ctx context.Context, db bun.IDB, teamCode string, round int, types []submissiondomain.ChallengeType) (int, error)
	FindDuplicateFunc func(ctx context.Context, db bun.IDB, teamCode, flag string, round int, types []submissiondomain.ChallengeType) (*submissiondb.SubmissionAttempt, error)
	InsertAttemptFunc func(ctx context.Context, db bun.IDB, attempt *submissiondb.SubmissionAttempt) error
	UpdateScoreFunc   func(ctx context.Context, db bun.IDB, attempt *submissiondb.SubmissionAttempt) error
	GetByIDFunc       func(ctx context.Context, db bun.IDB, id uuid.UUID) (*submissiondb.SubmissionAttempt, error)
	ListByTeamFunc    func(ctx context.Context, db bun.IDB, teamCode string) ([]submissiondb.SubmissionAttempt, error)
	ListAllFunc       func(ctx context.Context, db bun.IDB) ([]submissiondb.SubmissionAttempt, error)
}

func NewFakeSubmissionRepo() *FakeSubmissionRepo {
	return &FakeSubmissionRepo{trace: []string{}}
}

func (f *FakeSubmissionRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSubmissionRepo) RunInScope(ctx context.Context, teamCode string, key submissiondomain.ChallengeKey, fn submissiondb.ScopeFunc) error {
	f.record("RunInScope")
	if f.RunInScopeFunc != nil {
		return f.RunInScopeFunc(ctx, teamCode, key, fn)
	}
	return fn(ctx, nil)
}

func (f *FakeSubmissionRepo) CountAttempts(ctx context.Context, db bun.IDB, teamCode string, round int, types []submissiondomain.ChallengeType) (int, error) {
	f.record("CountAttempts")
	if f.CountAttemptsFunc != nil {
		return f.CountAttemptsFunc(ctx, db, teamCode, round, types)
	}
	return 0, nil
}

func (f *FakeSubmissionRepo) FindDuplicate(ctx context.Context, db bun.IDB, teamCode, flag string, round int, types []submissiondomain.ChallengeType) (*submissiondb.SubmissionAttempt, error) {
	f.record("FindDuplicate")
	if f.FindDuplicateFunc != nil {
		return f.FindDuplicateFunc(ctx, db, teamCode, flag, round, types)
	}
	return nil, nil
}

func (f *FakeSubmissionRepo) InsertAttempt(ctx context.Context, db bun.IDB, attempt *submissiondb.SubmissionAttempt) error {
	f.record("InsertAttempt")
	if f.InsertAttemptFunc != nil {
		return f.InsertAttemptFunc(ctx, db, attempt)
	}
	return nil
}

func (f *FakeSubmissionRepo) UpdateScore(ctx context.Context, db bun.IDB, attempt *submissiondb.SubmissionAttempt) error {
	f.record("UpdateScore")
	if f.UpdateScoreFunc != nil {
		return f.UpdateScoreFunc(ctx, db, attempt)
	}
	return nil
}

func (f *FakeSubmissionRepo) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*submissiondb.SubmissionAttempt, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	return nil, submissiondb.ErrNotFound
}

func (f *FakeSubmissionRepo) ListByTeam(ctx context.Context, db bun.IDB, teamCode string) ([]submissiondb.SubmissionAttempt, error) {
	f.record("ListByTeam")
	if f.ListByTeamFunc != nil {
		return f.ListByTeamFunc(ctx, db, teamCode)
	}
	return nil, nil
}

func (f *FakeSubmissionRepo) ListAll(ctx context.Context, db bun.IDB) ([]submissiondb.SubmissionAttempt, error) {
	f.record("ListAll")
	if f.ListAllFunc != nil {
		return f.ListAllFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeSubmissionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ submissiondb.Repository = (*FakeSubmissionRepo)(nil)

// ------------------------
// Fake collaborators
// ------------------------

type FakeRoundStarts struct {
	GetStartFunc func(ctx context.Context, teamCode string, round int) (time.Time, bool, error)
}

func (f *FakeRoundStarts) GetStart(ctx context.Context, teamCode string, round int) (time.Time, bool, error) {
	if f.GetStartFunc != nil {
		return f.GetStartFunc(ctx, teamCode, round)
	}
	return time.Time{}, false, nil
}

var _ RoundStartProvider = (*FakeRoundStarts)(nil)

type FakeHintPenalties struct {
	SumPenaltyFunc func(ctx context.Context, teamCode string, round int, bucket string, asOf time.Time) (float64, error)
}

func (f *FakeHintPenalties) SumPenalty(ctx context.Context, teamCode string, round int, bucket string, asOf time.Time) (float64, error) {
	if f.SumPenaltyFunc != nil {
		return f.SumPenaltyFunc(ctx, teamCode, round, bucket, asOf)
	}
	return 0, nil
}

var _ HintPenaltyProvider = (*FakeHintPenalties)(nil)

type FakePublisher struct {
	mu        sync.Mutex
	Published []submissiondomain.SubmissionRecordedPayloadV1
	Err       error
}

func (f *FakePublisher) PublishSubmissionRecorded(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Published = append(f.Published, payload)
	return f.Err
}

func (f *FakePublisher) Events() []submissiondomain.SubmissionRecordedPayloadV1 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]submissiondomain.SubmissionRecordedPayloadV1, len(f.Published))
	copy(out, f.Published)
	return out
}

var _ EventPublisher = (*FakePublisher)(nil)
