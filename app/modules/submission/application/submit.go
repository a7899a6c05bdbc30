package submissionservice

import (
	"context"
	"errors"
	"fmt"

	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"github.com/uptrace/bun"
)

// Submission outcomes recorded in metrics.
const (
	outcomeCorrect   = "correct"
	outcomeIncorrect = "incorrect"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
)

// Submit validates, records and scores one flag submission. Domain rejections
// come back as the typed errors of submissiondomain; infrastructure failures
// are hidden behind a TransientError carrying the correlation id.
func (s *SubmissionService) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	ctx, correlationID := attr.EnsureCorrelationID(ctx)

	var recorded *submissiondb.SubmissionAttempt
	result, err := withTelemetry(s, ctx, "Submit", cmd.Identity.TeamCode, func(ctx context.Context) (results.OperationResult[*SubmitResult, error], error) {
		key, flag, err := s.validate(cmd)
		if err != nil {
			return results.FailureResult[*SubmitResult, error](err), nil
		}

		return runInScope(s, ctx, cmd.Identity.TeamCode, key, func(ctx context.Context, db bun.IDB) (results.OperationResult[*SubmitResult, error], error) {
			res, attempt, err := s.submitLogic(ctx, db, key, cmd, flag)
			recorded = attempt
			return res, err
		})
	})

	label := cmd.ChallengeType.Label()
	if err != nil {
		if errors.Is(err, submissiondb.ErrDuplicateKey) {
			// lost a race with an identical submission in another process
			s.recordOutcome(ctx, label, outcomeRejected)
			return nil, s.duplicateFromLedger(ctx, cmd)
		}
		s.recordOutcome(ctx, label, outcomeError)
		return nil, &submissiondomain.TransientError{CorrelationID: correlationID, Err: err}
	}
	if result.IsFailure() {
		s.recordOutcome(ctx, label, outcomeRejected)
		return nil, *result.Failure
	}

	res := *result.Success
	if res.Correct {
		s.recordOutcome(ctx, label, outcomeCorrect)
		if s.metrics != nil {
			s.metrics.RecordPointsAwarded(ctx, label, res.Points)
		}
	} else {
		s.recordOutcome(ctx, label, outcomeIncorrect)
	}
	if recorded != nil {
		s.publish(ctx, recorded)
	}
	return res, nil
}

// validate runs every check that does not need the ledger.
func (s *SubmissionService) validate(cmd SubmitCommand) (submissiondomain.ChallengeKey, string, error) {
	if cmd.Round != 1 && cmd.Round != 2 {
		return 0, "", &submissiondomain.ValidationError{Field: "round", Reason: "round must be 1 or 2"}
	}
	if cmd.Identity.Round != cmd.Round {
		return 0, "", &submissiondomain.AuthMismatchError{ClaimRound: cmd.Identity.Round, RequestRound: cmd.Round}
	}
	if cmd.Identity.TeamCode == "" {
		return 0, "", &submissiondomain.ValidationError{Field: "teamCode", Reason: "team code is required"}
	}

	key, err := submissiondomain.ResolveChallengeKey(cmd.Round, cmd.ChallengeType)
	if err != nil {
		return 0, "", err
	}

	flag := submissiondomain.Normalize(cmd.Flag)
	if err := s.rules.Format.Validate(key, flag); err != nil {
		return 0, "", err
	}
	return key, flag, nil
}

// submitLogic runs inside the scope unit: limit, duplicate, compare, score, insert.
func (s *SubmissionService) submitLogic(
	ctx context.Context,
	db bun.IDB,
	key submissiondomain.ChallengeKey,
	cmd SubmitCommand,
	flag string,
) (results.OperationResult[*SubmitResult, error], *submissiondb.SubmissionAttempt, error) {
	team := cmd.Identity.TeamCode
	maxAttempts := key.MaxAttempts()

	used, err := s.repo.CountAttempts(ctx, db, team, key.Round(), key.ScopeTypes())
	if err != nil {
		return results.OperationResult[*SubmitResult, error]{}, nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if used >= maxAttempts {
		return results.FailureResult[*SubmitResult, error](&submissiondomain.AttemptLimitError{Max: maxAttempts, Used: used}), nil, nil
	}

	dup, err := s.repo.FindDuplicate(ctx, db, team, flag, key.Round(), key.ScopeTypes())
	if err != nil {
		return results.OperationResult[*SubmitResult, error]{}, nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	if dup != nil {
		return results.FailureResult[*SubmitResult, error](&submissiondomain.DuplicateSubmissionError{OriginalSubmittedAt: dup.SubmittedAt}), nil, nil
	}

	now := s.clock.Now()
	attempt := &submissiondb.SubmissionAttempt{
		TeamCode:      team,
		Round:         key.Round(),
		ChallengeType: cmd.ChallengeType,
		FlagText:      flag,
		AttemptNumber: used + 1,
		SubmittedAt:   now,
		Verified:      true,
		VerifiedAt:    &now,
	}

	breakdown, err := s.evaluate(ctx, attempt, key)
	if err != nil {
		return results.OperationResult[*SubmitResult, error]{}, nil, err
	}

	if err := s.repo.InsertAttempt(ctx, db, attempt); err != nil {
		if errors.Is(err, submissiondb.ErrDuplicateKey) {
			return results.OperationResult[*SubmitResult, error]{}, nil, err
		}
		return results.OperationResult[*SubmitResult, error]{}, nil, fmt.Errorf("failed to insert attempt: %w", err)
	}

	return results.SuccessResult[*SubmitResult, error](&SubmitResult{
		Success:           true,
		Correct:           attempt.IsCorrect,
		AttemptNumber:     attempt.AttemptNumber,
		RemainingAttempts: maxAttempts - attempt.AttemptNumber,
		Points:            attempt.Points,
		Breakdown:         breakdown,
	}), attempt, nil
}

// duplicateFromLedger builds the duplicate rejection after a unique-key race,
// reading the winning attempt outside the failed unit.
func (s *SubmissionService) duplicateFromLedger(ctx context.Context, cmd SubmitCommand) error {
	dupErr := &submissiondomain.DuplicateSubmissionError{OriginalSubmittedAt: s.clock.Now()}

	key, err := submissiondomain.ResolveChallengeKey(cmd.Round, cmd.ChallengeType)
	if err != nil {
		return dupErr
	}
	dup, err := s.repo.FindDuplicate(ctx, nil, cmd.Identity.TeamCode, submissiondomain.Normalize(cmd.Flag), key.Round(), key.ScopeTypes())
	if err == nil && dup != nil {
		dupErr.OriginalSubmittedAt = dup.SubmittedAt
	}
	return dupErr
}

func (s *SubmissionService) recordOutcome(ctx context.Context, challenge, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(ctx, challenge, outcome)
	}
}
