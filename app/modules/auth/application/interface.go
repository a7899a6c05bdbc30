package authservice

import (
	"context"
	"time"

	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
)

// Service defines the authentication service interface.
type Service interface {
	// TeamLogin verifies a team's access code and issues a token bound to one round.
	TeamLogin(ctx context.Context, req TeamLoginRequest) (*LoginResponse, error)

	// AdminLogin verifies the configured admin credentials and issues an admin token.
	AdminLogin(ctx context.Context, username, password string) (*LoginResponse, error)

	// ValidateToken validates a JWT token and returns the claims if valid.
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

// TeamCredentials looks up the stored access code hash of a team.
type TeamCredentials interface {
	GetCredentials(ctx context.Context, teamCode string) (*TeamCredential, error)
}

// TeamCredential is what login needs to know about a team.
type TeamCredential struct {
	TeamCode   string
	AccessHash string
	Active     bool
}

type TeamLoginRequest struct {
	TeamCode   string `json:"teamCode"`
	AccessCode string `json:"accessCode"`
	Round      int    `json:"round"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	TeamCode  string          `json:"teamCode,omitempty"`
	Round     int             `json:"round,omitempty"`
	Role      authdomain.Role `json:"role"`
}
