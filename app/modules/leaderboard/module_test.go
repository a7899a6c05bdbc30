package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	leaderboardservice "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/application"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModule_MemoryLeaderboardRoute(t *testing.T) {
	ctx := context.Background()
	teams := teamdb.NewMemoryRepository()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, teams.Create(ctx, nil, &teamdb.Team{Code: "TEAM01", Name: "Gorgons", Active: true, CreatedAt: now, UpdatedAt: now}))

	router := chi.NewRouter()
	m, err := NewModule(ctx, &config.Config{}, observability.NewNoop(), Dependencies{
		Teams:    teams,
		Attempts: submissiondb.NewMemoryRepository(),
	}, router)
	require.NoError(t, err)
	defer m.Close()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var board leaderboardservice.Leaderboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "TEAM01", board.Entries[0].TeamCode)
	assert.Equal(t, 1, board.Entries[0].Rank)
}
