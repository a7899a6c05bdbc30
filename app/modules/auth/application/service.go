package authservice

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
	authjwt "github.com/medusa-ctf/medusa-backend/app/modules/auth/infrastructure/jwt"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the configuration for the auth service.
type Config struct {
	DefaultTTL        time.Duration
	AdminUsername     string
	AdminPasswordHash string
}

const DefaultTokenTTL = 12 * time.Hour

// dummyHash keeps the bcrypt cost constant for unknown teams.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("medusa-dummy-access-code"), bcrypt.DefaultCost)

// service implements the Service interface.
type service struct {
	teams       TeamCredentials
	jwtProvider authjwt.Provider
	config      Config
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewService creates a new auth service.
func NewService(
	jwtProvider authjwt.Provider,
	teams TeamCredentials,
	config Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) Service {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultTokenTTL
	}
	return &service{
		teams:       teams,
		jwtProvider: jwtProvider,
		config:      config,
		logger:      logger,
		tracer:      tracer,
	}
}

func (s *service) TeamLogin(ctx context.Context, req TeamLoginRequest) (*LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.TeamLogin")
	defer span.End()

	teamCode := strings.TrimSpace(req.TeamCode)
	if req.Round != 1 && req.Round != 2 {
		return nil, ErrInvalidRound
	}
	if teamCode == "" || req.AccessCode == "" {
		return nil, ErrInvalidCredentials
	}

	cred, err := s.teams.GetCredentials(ctx, teamCode)
	if err != nil && !errors.Is(err, ErrUnknownTeam) {
		return nil, fmt.Errorf("failed to load team credentials: %w", err)
	}

	hash := dummyHash
	if cred != nil {
		hash = []byte(cred.AccessHash)
	}
	matchErr := bcrypt.CompareHashAndPassword(hash, []byte(req.AccessCode))
	if cred == nil || matchErr != nil || !cred.Active {
		s.logger.WarnContext(ctx, "Team login rejected",
			attr.ExtractCorrelationID(ctx),
			attr.TeamCode(teamCode),
			attr.Round(req.Round),
		)
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, &authdomain.Claims{
		Subject:  cred.TeamCode,
		TeamCode: cred.TeamCode,
		Round:    req.Round,
		Role:     authdomain.RoleTeam,
	})
}

func (s *service) AdminLogin(ctx context.Context, username, password string) (*LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.AdminLogin")
	defer span.End()

	if s.config.AdminUsername == "" || s.config.AdminPasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.AdminUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password))
	if !userOK || passErr != nil {
		s.logger.WarnContext(ctx, "Admin login rejected", attr.ExtractCorrelationID(ctx))
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, &authdomain.Claims{
		Subject: s.config.AdminUsername,
		Role:    authdomain.RoleAdmin,
	})
}

func (s *service) issue(ctx context.Context, claims *authdomain.Claims) (*LoginResponse, error) {
	token, err := s.jwtProvider.GenerateToken(claims, s.config.DefaultTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token", attr.Error(err))
		return nil, ErrGenerateToken
	}

	s.logger.InfoContext(ctx, "Session issued",
		attr.ExtractCorrelationID(ctx),
		attr.String("subject", claims.Subject),
		attr.String("role", claims.Role.String()),
		attr.Round(claims.Round),
	)

	return &LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.DefaultTTL).UTC(),
		TeamCode:  claims.TeamCode,
		Round:     claims.Round,
		Role:      claims.Role,
	}, nil
}

func (s *service) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	_, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer span.End()

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.jwtProvider.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}
