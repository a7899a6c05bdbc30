package leaderboardhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	leaderboardservice "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/application"
	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(svc *FakeService) *LeaderboardHandlers {
	return NewLeaderboardHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleGet(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(svc *FakeService)
		wantStatus int
		verify     func(t *testing.T, body []byte)
	}{
		{
			name: "returns ranked entries",
			setup: func(svc *FakeService) {
				svc.GetLeaderboardFunc = func(ctx context.Context) (*leaderboardservice.Leaderboard, error) {
					return &leaderboardservice.Leaderboard{Entries: []leaderboarddomain.Entry{
						{Rank: 1, Standing: leaderboarddomain.Standing{TeamCode: "TEAM01", Points: 990}},
					}}, nil
				}
			},
			wantStatus: http.StatusOK,
			verify: func(t *testing.T, body []byte) {
				var board leaderboardservice.Leaderboard
				require.NoError(t, json.Unmarshal(body, &board))
				require.Len(t, board.Entries, 1)
				assert.Equal(t, "TEAM01", board.Entries[0].TeamCode)
			},
		},
		{
			name: "storage failure is opaque",
			setup: func(svc *FakeService) {
				svc.GetLeaderboardFunc = func(ctx context.Context) (*leaderboardservice.Leaderboard, error) {
					return nil, errors.New("pq: connection refused")
				}
			},
			wantStatus: http.StatusInternalServerError,
			verify: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "internal_error")
				assert.NotContains(t, string(body), "pq:")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeService{}
			tt.setup(svc)
			rec := httptest.NewRecorder()
			newTestHandlers(svc).HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			tt.verify(t, rec.Body.Bytes())
		})
	}
}

func TestHandleChart(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTop    int
	}{
		{name: "default", query: "", wantStatus: http.StatusOK, wantTop: 0},
		{name: "explicit top", query: "?top=5", wantStatus: http.StatusOK, wantTop: 5},
		{name: "non numeric", query: "?top=all", wantStatus: http.StatusBadRequest, wantTop: -1},
		{name: "zero", query: "?top=0", wantStatus: http.StatusBadRequest, wantTop: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTop := -1
			svc := &FakeService{RenderChartFunc: func(ctx context.Context, top int) ([]byte, error) {
				gotTop = top
				return []byte("\x89PNG"), nil
			}}
			rec := httptest.NewRecorder()
			newTestHandlers(svc).HandleChart(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard/chart.png"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantTop, gotTop)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			}
		})
	}
}
