package submissionservice

import (
	"context"
	"fmt"
	"slices"
	"time"

	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
)

// GetAttemptStatus reports used and remaining attempts per scope for a team.
func (s *SubmissionService) GetAttemptStatus(ctx context.Context, teamCode string) (*AttemptStatus, error) {
	result, err := withTelemetry(s, ctx, "GetAttemptStatus", teamCode, func(ctx context.Context) (results.OperationResult[*AttemptStatus, error], error) {
		attempts, err := s.repo.ListByTeam(ctx, nil, teamCode)
		if err != nil {
			return results.OperationResult[*AttemptStatus, error]{}, fmt.Errorf("failed to list attempts: %w", err)
		}
		return results.SuccessResult[*AttemptStatus, error](buildAttemptStatus(attempts)), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

func buildAttemptStatus(attempts []submissiondb.SubmissionAttempt) *AttemptStatus {
	byKey := make(map[submissiondomain.ChallengeKey][]submissiondb.SubmissionAttempt)
	for _, a := range attempts {
		key, err := submissiondomain.ResolveChallengeKey(a.Round, a.ChallengeType)
		if err != nil {
			continue
		}
		byKey[key] = append(byKey[key], a)
	}

	pwnAttempts := byKey[submissiondomain.KeyPwnCombined]
	pwn := PWNStatus{ChallengeStatus: scopeStatus(submissiondomain.KeyPwnCombined, pwnAttempts)}

	var userAt, rootAt *time.Time
	for _, a := range pwnAttempts {
		if !a.IsCorrect {
			continue
		}
		at := a.SubmittedAt
		switch a.ChallengeType {
		case submissiondomain.ChallengePWNUser:
			pwn.UserSolved, userAt = true, &at
		case submissiondomain.ChallengePWNRoot:
			pwn.RootSolved, rootAt = true, &at
		}
	}
	pwn.Completed = pwn.UserSolved && pwn.RootSolved
	pwn.CompletedAt = nil
	if pwn.Completed {
		last := *userAt
		if rootAt.After(last) {
			last = *rootAt
		}
		pwn.CompletedAt = &last
	}

	return &AttemptStatus{
		Round1: scopeStatus(submissiondomain.KeyRound1, byKey[submissiondomain.KeyRound1]),
		Round2: Round2Status{
			Android: scopeStatus(submissiondomain.KeyAndroid, byKey[submissiondomain.KeyAndroid]),
			PWN:     pwn,
		},
	}
}

func scopeStatus(key submissiondomain.ChallengeKey, attempts []submissiondb.SubmissionAttempt) ChallengeStatus {
	maxAttempts := key.MaxAttempts()
	status := ChallengeStatus{
		Used:        len(attempts),
		Remaining:   max(0, maxAttempts-len(attempts)),
		MaxAttempts: maxAttempts,
	}

	var solves []time.Time
	for _, a := range attempts {
		if a.IsCorrect {
			status.Points += a.Points
			solves = append(solves, a.SubmittedAt)
		}
	}
	if len(solves) > 0 {
		first := slices.MinFunc(solves, func(a, b time.Time) int { return a.Compare(b) })
		status.Completed = true
		status.CompletedAt = &first
	}
	return status
}
