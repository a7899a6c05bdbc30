package teamservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func newTestService(repo teamdb.Repository) *TeamService {
	s := NewTeamService(
		repo,
		clock.Fixed(fixedNow),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
	)
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestCreateTeam(t *testing.T) {
	name := gofakeit.Company()
	institution := gofakeit.City()

	tests := []struct {
		name    string
		setup   func(repo *teamdb.MemoryRepository)
		req     CreateTeamRequest
		wantErr error
		verify  func(t *testing.T, team *teamdb.Team, repo *teamdb.MemoryRepository)
	}{
		{
			name: "normalizes code and hashes access code",
			req:  CreateTeamRequest{Code: " team01 ", Name: name, Institution: institution, AccessCode: "s3cret-access"},
			verify: func(t *testing.T, team *teamdb.Team, repo *teamdb.MemoryRepository) {
				assert.Equal(t, "TEAM01", team.Code)
				assert.Equal(t, name, team.Name)
				assert.True(t, team.Active)
				assert.True(t, team.CreatedAt.Equal(fixedNow))
				assert.NotEqual(t, "s3cret-access", team.AccessHash)
				require.NoError(t, bcrypt.CompareHashAndPassword([]byte(team.AccessHash), []byte("s3cret-access")))

				stored, err := repo.GetByCode(context.Background(), nil, "TEAM01")
				require.NoError(t, err)
				assert.Equal(t, institution, stored.Institution)
			},
		},
		{
			name:    "rejects malformed code",
			req:     CreateTeamRequest{Code: "t!", Name: name, AccessCode: "s3cret-access"},
			wantErr: ErrInvalidTeam,
		},
		{
			name:    "rejects empty name",
			req:     CreateTeamRequest{Code: "TEAM02", Name: "  ", AccessCode: "s3cret-access"},
			wantErr: ErrInvalidTeam,
		},
		{
			name:    "rejects short access code",
			req:     CreateTeamRequest{Code: "TEAM02", Name: name, AccessCode: "short"},
			wantErr: ErrInvalidTeam,
		},
		{
			name: "rejects duplicate code",
			setup: func(repo *teamdb.MemoryRepository) {
				_ = repo.Create(context.Background(), nil, &teamdb.Team{Code: "TEAM03", Name: "first"})
			},
			req:     CreateTeamRequest{Code: "team03", Name: name, AccessCode: "s3cret-access"},
			wantErr: ErrTeamExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := teamdb.NewMemoryRepository()
			if tt.setup != nil {
				tt.setup(repo)
			}
			svc := newTestService(repo)

			team, err := svc.CreateTeam(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, team)
				return
			}
			require.NoError(t, err)
			if tt.verify != nil {
				tt.verify(t, team, repo)
			}
		})
	}
}

func TestUpdateTeam(t *testing.T) {
	newName := gofakeit.Company()
	inactive := false
	blank := " "

	tests := []struct {
		name    string
		code    string
		req     UpdateTeamRequest
		wantErr error
		verify  func(t *testing.T, team *teamdb.Team)
	}{
		{
			name: "patches only provided fields",
			code: "team01",
			req:  UpdateTeamRequest{Name: &newName, Active: &inactive},
			verify: func(t *testing.T, team *teamdb.Team) {
				assert.Equal(t, newName, team.Name)
				assert.False(t, team.Active)
				assert.Equal(t, "Old Uni", team.Institution)
			},
		},
		{
			name:    "unknown team",
			code:    "TEAM99",
			req:     UpdateTeamRequest{Name: &newName},
			wantErr: ErrTeamNotFound,
		},
		{
			name:    "blank name",
			code:    "TEAM01",
			req:     UpdateTeamRequest{Name: &blank},
			wantErr: ErrInvalidTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := teamdb.NewMemoryRepository()
			require.NoError(t, repo.Create(context.Background(), nil, &teamdb.Team{Code: "TEAM01", Name: "Old", Institution: "Old Uni", Active: true}))
			svc := newTestService(repo)

			team, err := svc.UpdateTeam(context.Background(), tt.code, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.verify(t, team)

			stored, err := repo.GetByCode(context.Background(), nil, "TEAM01")
			require.NoError(t, err)
			assert.Equal(t, team.Name, stored.Name)
			assert.True(t, stored.UpdatedAt.Equal(fixedNow))
		})
	}
}

func TestListTeams(t *testing.T) {
	repo := teamdb.NewMemoryRepository()
	for _, code := range []string{"TEAM02", "TEAM01"} {
		require.NoError(t, repo.Create(context.Background(), nil, &teamdb.Team{Code: code, Name: gofakeit.Company()}))
	}
	svc := newTestService(repo)

	teams, err := svc.ListTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "TEAM01", teams[0].Code)
}

func TestServiceInfrastructureErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &FakeTeamRepo{
		ListFunc: func(ctx context.Context, db bun.IDB) ([]teamdb.Team, error) { return nil, boom },
		GetByCodeFunc: func(ctx context.Context, db bun.IDB, code string) (*teamdb.Team, error) {
			return nil, boom
		},
	}
	svc := newTestService(repo)

	_, err := svc.ListTeams(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = svc.GetTeam(context.Background(), "TEAM01")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTeamNotFound)
}
