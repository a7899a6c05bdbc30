package authhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authservice "github.com/medusa-ctf/medusa-backend/app/modules/auth/application"
	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(svc authservice.Service) *AuthHandlers {
	return NewAuthHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
}

func TestAuthHandlers_HandleTeamLogin(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupService func(*FakeService)
		verify       func(t *testing.T, rr *httptest.ResponseRecorder)
	}{
		{
			name: "success",
			body: `{"teamCode":"TEAM01","accessCode":"open-sesame","round":2}`,
			setupService: func(s *FakeService) {
				s.TeamLoginFunc = func(ctx context.Context, req authservice.TeamLoginRequest) (*authservice.LoginResponse, error) {
					if req.Round != 2 || req.TeamCode != "TEAM01" {
						return nil, errors.New("unexpected request")
					}
					return &authservice.LoginResponse{Token: "jwt", TeamCode: "TEAM01", Round: 2, Role: authdomain.RoleTeam}, nil
				}
			},
			verify: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, rr.Code)
				var body authservice.LoginResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.Equal(t, "jwt", body.Token)
				assert.Equal(t, 2, body.Round)
			},
		},
		{
			name: "bad credentials",
			body: `{"teamCode":"TEAM01","accessCode":"nope","round":1}`,
			setupService: func(s *FakeService) {
				s.TeamLoginFunc = func(ctx context.Context, req authservice.TeamLoginRequest) (*authservice.LoginResponse, error) {
					return nil, authservice.ErrInvalidCredentials
				}
			},
			verify: func(t *testing.T, rr *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusUnauthorized, rr.Code)
			},
		},
		{
			name: "bad round",
			body: `{"teamCode":"TEAM01","accessCode":"x","round":5}`,
			setupService: func(s *FakeService) {
				s.TeamLoginFunc = func(ctx context.Context, req authservice.TeamLoginRequest) (*authservice.LoginResponse, error) {
					return nil, authservice.ErrInvalidRound
				}
			},
			verify: func(t *testing.T, rr *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusBadRequest, rr.Code)
			},
		},
		{
			name: "unknown field",
			body: `{"teamCode":"TEAM01","accessCode":"x","round":1,"role":"admin"}`,
			verify: func(t *testing.T, rr *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusBadRequest, rr.Code)
			},
		},
		{
			name: "store failure is opaque",
			body: `{"teamCode":"TEAM01","accessCode":"x","round":1}`,
			setupService: func(s *FakeService) {
				s.TeamLoginFunc = func(ctx context.Context, req authservice.TeamLoginRequest) (*authservice.LoginResponse, error) {
					return nil, errors.New("pq: connection refused")
				}
			},
			verify: func(t *testing.T, rr *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusInternalServerError, rr.Code)
				assert.NotContains(t, rr.Body.String(), "connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeService{}
			if tt.setupService != nil {
				tt.setupService(svc)
			}
			h := newTestHandlers(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.HandleTeamLogin(rr, req)

			tt.verify(t, rr)
		})
	}
}

func TestAuthHandlers_HandleAdminLogin(t *testing.T) {
	svc := &FakeService{AdminLoginFunc: func(ctx context.Context, username, password string) (*authservice.LoginResponse, error) {
		if username == "root" && password == "hunter2" {
			return &authservice.LoginResponse{Token: "admin-jwt", Role: authdomain.RoleAdmin}, nil
		}
		return nil, authservice.ErrInvalidCredentials
	}}
	h := newTestHandlers(svc)

	rr := httptest.NewRecorder()
	h.HandleAdminLogin(rr, httptest.NewRequest(http.MethodPost, "/api/auth/admin/login", strings.NewReader(`{"username":"root","password":"hunter2"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "admin-jwt")

	rr = httptest.NewRecorder()
	h.HandleAdminLogin(rr, httptest.NewRequest(http.MethodPost, "/api/auth/admin/login", strings.NewReader(`{"username":"root","password":"x"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	validator := &FakeService{ValidateTokenFunc: func(ctx context.Context, token string) (*authdomain.Claims, error) {
		switch token {
		case "team-token":
			return &authdomain.Claims{TeamCode: "TEAM01", Round: 1, Role: authdomain.RoleTeam}, nil
		case "admin-token":
			return &authdomain.Claims{Subject: "root", Role: authdomain.RoleAdmin}, nil
		case "expired":
			return nil, authservice.ErrExpiredToken
		case "":
			return nil, authservice.ErrMissingToken
		default:
			return nil, authservice.ErrInvalidToken
		}
	}}

	var seen *authdomain.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = authdomain.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		middleware func(http.Handler) http.Handler
		header     string
		wantStatus int
		wantCode   string
	}{
		{"team ok", RequireTeam(validator), "Bearer team-token", http.StatusNoContent, ""},
		{"lowercase scheme", RequireTeam(validator), "bearer team-token", http.StatusNoContent, ""},
		{"admin on team route", RequireTeam(validator), "Bearer admin-token", http.StatusForbidden, "forbidden"},
		{"team on admin route", RequireAdmin(validator), "Bearer team-token", http.StatusForbidden, "forbidden"},
		{"admin ok", RequireAdmin(validator), "Bearer admin-token", http.StatusNoContent, ""},
		{"missing header", RequireTeam(validator), "", http.StatusUnauthorized, "unauthorized"},
		{"expired", RequireTeam(validator), "Bearer expired", http.StatusUnauthorized, "token_expired"},
		{"basic scheme", RequireTeam(validator), "Basic team-token", http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			tt.middleware(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				var body httpjson.ErrorBody
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Code)
				assert.Nil(t, seen)
			} else {
				assert.NotNil(t, seen)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(0, 2)
	h := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://ctf.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://ctf.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://ctf.example", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
