package submissionservice

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedCorrectRound1(t *testing.T, svc *SubmissionService, repo *submissiondb.MemoryRepository) submissiondb.SubmissionAttempt {
	t.Helper()
	_, err := svc.Submit(context.Background(), round1Cmd(round1Secret))
	require.NoError(t, err)
	rows, err := repo.ListByTeam(context.Background(), nil, "TEAM01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestUpdateSubmittedAt(t *testing.T) {
	repo := submissiondb.NewMemoryRepository()
	svc := newTestService(t, serviceDeps{repo: repo, clock: clock.Fixed(roundStart.Add(11 * time.Minute))})
	seeded := seedCorrectRound1(t, svc, repo)
	require.InDelta(t, 978.0, seeded.Points, 1e-9)

	moved := roundStart.Add(3*time.Hour + time.Minute)
	first, err := svc.UpdateSubmittedAt(context.Background(), seeded.ID, moved)
	require.NoError(t, err)
	assert.InDelta(t, 750.0, first.Points, 1e-9)
	assert.InDelta(t, 0.75, first.TimeMultiplier, 1e-9)

	second, err := svc.UpdateSubmittedAt(context.Background(), seeded.ID, moved)
	require.NoError(t, err)
	assert.Equal(t, first.Points, second.Points)
	assert.True(t, second.SubmittedAt.Equal(moved))

	stored, err := repo.GetByID(context.Background(), nil, seeded.ID)
	require.NoError(t, err)
	assert.InDelta(t, 750.0, stored.Points, 1e-9)
}

func TestUpdateSubmittedAt_NotFound(t *testing.T) {
	svc := newTestService(t, serviceDeps{})

	_, err := svc.UpdateSubmittedAt(context.Background(), uuid.New(), roundStart)
	assert.ErrorIs(t, err, submissiondomain.ErrAttemptNotFound)

	_, err = svc.UpdateSubmittedAt(context.Background(), uuid.New(), time.Time{})
	assert.ErrorIs(t, err, submissiondomain.ErrValidation)
}

func TestReverify(t *testing.T) {
	repo := submissiondb.NewMemoryRepository()
	svc := newTestService(t, serviceDeps{repo: repo})
	seeded := seedCorrectRound1(t, svc, repo)

	// simulate a row recorded before the secret was corrected
	broken := seeded
	broken.IsCorrect = false
	broken.ClearScore()
	broken.Verified = false
	require.NoError(t, repo.UpdateScore(context.Background(), nil, &broken))

	got, err := svc.Reverify(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCorrect)
	assert.True(t, got.Verified)
	assert.InDelta(t, 1000.0, got.Points, 1e-9)
}

func TestRecalculateTeamRound(t *testing.T) {
	repo := submissiondb.NewMemoryRepository()
	start := roundStart
	sessions := &FakeRoundStarts{GetStartFunc: func(ctx context.Context, teamCode string, round int) (time.Time, bool, error) {
		return start, true, nil
	}}
	svc := newTestService(t, serviceDeps{repo: repo, sessions: sessions, clock: clock.Fixed(roundStart.Add(time.Hour))})

	_, err := svc.Submit(context.Background(), round2Cmd(submissiondomain.ChallengeAndroid, androidSecret))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), round2Cmd(submissiondomain.ChallengePWNUser, pwnUserSecret))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), round1Cmd(round1Secret))
	require.NoError(t, err)

	// the round actually started an hour later than recorded
	start = roundStart.Add(time.Hour)

	n, err := svc.RecalculateTeamRound(context.Background(), "TEAM01", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := repo.ListByTeam(context.Background(), nil, "TEAM01")
	require.NoError(t, err)
	for _, r := range rows {
		switch r.ChallengeType {
		case submissiondomain.ChallengeAndroid:
			assert.InDelta(t, 750.0, r.Points, 1e-9)
		case submissiondomain.ChallengePWNUser:
			assert.InDelta(t, 450.0, r.Points, 1e-9)
		case submissiondomain.ChallengeNone:
			assert.InDelta(t, 900.0, r.Points, 1e-9, "round 1 untouched")
		}
	}

	_, err = svc.RecalculateTeamRound(context.Background(), "TEAM01", 3)
	assert.ErrorIs(t, err, submissiondomain.ErrValidation)
}

func TestRescoring_IgnoresHintsUnlockedAfterTheSolve(t *testing.T) {
	repo := submissiondb.NewMemoryRepository()
	solvedAt := roundStart.Add(time.Hour)
	unlockedAt := solvedAt.Add(5 * time.Minute)
	hints := &FakeHintPenalties{SumPenaltyFunc: func(ctx context.Context, teamCode string, round int, bucket string, asOf time.Time) (float64, error) {
		if bucket != "pwn" || asOf.Before(unlockedAt) {
			return 0, nil
		}
		return 100, nil
	}}
	svc := newTestService(t, serviceDeps{repo: repo, hints: hints, clock: clock.Fixed(solvedAt)})

	res, err := svc.Submit(context.Background(), round2Cmd(submissiondomain.ChallengePWNUser, pwnUserSecret))
	require.NoError(t, err)
	require.Zero(t, res.Breakdown.HintPenalty)

	// the pwn hint is bought after the user solve, while working on root
	n, err := svc.RecalculateTeamRound(context.Background(), "TEAM01", 2)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := repo.ListByTeam(context.Background(), nil, "TEAM01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, res.Points, rows[0].Points, 1e-9)
	assert.Zero(t, rows[0].HintPenalty)

	reverified, err := svc.Reverify(context.Background(), rows[0].ID)
	require.NoError(t, err)
	assert.InDelta(t, res.Points, reverified.Points, 1e-9)

	moved, err := svc.UpdateSubmittedAt(context.Background(), rows[0].ID, unlockedAt)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, moved.HintPenalty, 1e-9, "an unlock at the submission instant is charged")
}

func TestExportXLSX(t *testing.T) {
	repo := submissiondb.NewMemoryRepository()
	svc := newTestService(t, serviceDeps{repo: repo})
	_, err := svc.Submit(context.Background(), round1Cmd("MEDUSA{wrong_guess}"))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), round1Cmd(round1Secret))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "TEAM01", rows[1][1])
	assert.Equal(t, "round1", rows[1][3])
	for _, row := range rows {
		for _, cell := range row {
			assert.NotContains(t, cell, "round_one_secret")
			assert.NotContains(t, cell, "wrong_guess")
		}
	}
}
