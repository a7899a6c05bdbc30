package submissionservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"github.com/uptrace/bun"
)

// UpdateSubmittedAt moves an attempt's submission time and rescores it.
// Applying the same time twice yields the same record.
func (s *SubmissionService) UpdateSubmittedAt(ctx context.Context, id uuid.UUID, submittedAt time.Time) (*submissiondb.SubmissionAttempt, error) {
	if submittedAt.IsZero() {
		return nil, &submissiondomain.ValidationError{Field: "submittedAt", Reason: "submittedAt is required"}
	}
	return s.rescoreAttempt(ctx, "UpdateSubmittedAt", id, func(a *submissiondb.SubmissionAttempt) {
		a.SubmittedAt = submittedAt.UTC()
	})
}

// Reverify re-runs the flag comparison and scoring for one attempt.
func (s *SubmissionService) Reverify(ctx context.Context, id uuid.UUID) (*submissiondb.SubmissionAttempt, error) {
	return s.rescoreAttempt(ctx, "Reverify", id, func(a *submissiondb.SubmissionAttempt) {
		now := s.clock.Now()
		a.Verified = true
		a.VerifiedAt = &now
	})
}

func (s *SubmissionService) rescoreAttempt(
	ctx context.Context,
	operationName string,
	id uuid.UUID,
	mutate func(a *submissiondb.SubmissionAttempt),
) (*submissiondb.SubmissionAttempt, error) {
	result, err := withTelemetry(s, ctx, operationName, id.String(), func(ctx context.Context) (results.OperationResult[*submissiondb.SubmissionAttempt, error], error) {
		existing, err := s.repo.GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, submissiondb.ErrNotFound) {
				return results.FailureResult[*submissiondb.SubmissionAttempt, error](submissiondomain.ErrAttemptNotFound), nil
			}
			return results.OperationResult[*submissiondb.SubmissionAttempt, error]{}, fmt.Errorf("failed to load attempt: %w", err)
		}
		key, err := submissiondomain.ResolveChallengeKey(existing.Round, existing.ChallengeType)
		if err != nil {
			return results.OperationResult[*submissiondb.SubmissionAttempt, error]{}, fmt.Errorf("stored attempt has invalid scope: %w", err)
		}

		return runInScope(s, ctx, existing.TeamCode, key, func(ctx context.Context, db bun.IDB) (results.OperationResult[*submissiondb.SubmissionAttempt, error], error) {
			attempt, err := s.repo.GetByID(ctx, db, id)
			if err != nil {
				return results.OperationResult[*submissiondb.SubmissionAttempt, error]{}, fmt.Errorf("failed to reload attempt: %w", err)
			}
			mutate(attempt)
			if _, err := s.evaluate(ctx, attempt, key); err != nil {
				return results.OperationResult[*submissiondb.SubmissionAttempt, error]{}, err
			}
			if err := s.repo.UpdateScore(ctx, db, attempt); err != nil {
				return results.OperationResult[*submissiondb.SubmissionAttempt, error]{}, fmt.Errorf("failed to update attempt: %w", err)
			}
			return results.SuccessResult[*submissiondb.SubmissionAttempt, error](attempt), nil
		})
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}

	attempt := *result.Success
	s.publish(ctx, attempt)
	return attempt, nil
}

// RecalculateTeamRound rescores every attempt of a team's round, typically
// after the round start was overridden. Returns the number of attempts rescored.
func (s *SubmissionService) RecalculateTeamRound(ctx context.Context, teamCode string, round int) (int, error) {
	var keys []submissiondomain.ChallengeKey
	switch round {
	case 1:
		keys = []submissiondomain.ChallengeKey{submissiondomain.KeyRound1}
	case 2:
		keys = []submissiondomain.ChallengeKey{submissiondomain.KeyAndroid, submissiondomain.KeyPwnCombined}
	default:
		return 0, &submissiondomain.ValidationError{Field: "round", Reason: "round must be 1 or 2"}
	}

	var rescored []submissiondb.SubmissionAttempt
	_, err := withTelemetry(s, ctx, "RecalculateTeamRound", teamCode, func(ctx context.Context) (results.OperationResult[int, error], error) {
		for _, key := range keys {
			res, err := runInScope(s, ctx, teamCode, key, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]submissiondb.SubmissionAttempt, error], error) {
				return s.recalculateScope(ctx, db, teamCode, key)
			})
			if err != nil {
				return results.OperationResult[int, error]{}, err
			}
			rescored = append(rescored, *res.Success...)
		}
		return results.SuccessResult[int, error](len(rescored)), nil
	})
	if err != nil {
		return 0, err
	}

	for i := range rescored {
		s.publish(ctx, &rescored[i])
	}
	return len(rescored), nil
}

func (s *SubmissionService) recalculateScope(
	ctx context.Context,
	db bun.IDB,
	teamCode string,
	key submissiondomain.ChallengeKey,
) (results.OperationResult[[]submissiondb.SubmissionAttempt, error], error) {
	attempts, err := s.repo.ListByTeam(ctx, db, teamCode)
	if err != nil {
		return results.OperationResult[[]submissiondb.SubmissionAttempt, error]{}, fmt.Errorf("failed to list attempts: %w", err)
	}

	var rescored []submissiondb.SubmissionAttempt
	for i := range attempts {
		a := &attempts[i]
		if a.Round != key.Round() || !slices.Contains(key.ScopeTypes(), a.ChallengeType) {
			continue
		}
		if _, err := s.evaluate(ctx, a, key); err != nil {
			return results.OperationResult[[]submissiondb.SubmissionAttempt, error]{}, err
		}
		if err := s.repo.UpdateScore(ctx, db, a); err != nil {
			return results.OperationResult[[]submissiondb.SubmissionAttempt, error]{}, fmt.Errorf("failed to update attempt %s: %w", a.ID, err)
		}
		rescored = append(rescored, *a)
	}
	return results.SuccessResult[[]submissiondb.SubmissionAttempt, error](rescored), nil
}

// ListAttempts returns a team's attempts, or every attempt when teamCode is empty.
func (s *SubmissionService) ListAttempts(ctx context.Context, teamCode string) ([]submissiondb.SubmissionAttempt, error) {
	result, err := withTelemetry(s, ctx, "ListAttempts", teamCode, func(ctx context.Context) (results.OperationResult[[]submissiondb.SubmissionAttempt, error], error) {
		var (
			attempts []submissiondb.SubmissionAttempt
			err      error
		)
		if teamCode == "" {
			attempts, err = s.repo.ListAll(ctx, nil)
		} else {
			attempts, err = s.repo.ListByTeam(ctx, nil, teamCode)
		}
		if err != nil {
			return results.OperationResult[[]submissiondb.SubmissionAttempt, error]{}, fmt.Errorf("failed to list attempts: %w", err)
		}
		return results.SuccessResult[[]submissiondb.SubmissionAttempt, error](attempts), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}
