package authservice

import (
	"context"
	"time"

	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
	authjwt "github.com/medusa-ctf/medusa-backend/app/modules/auth/infrastructure/jwt"
)

// ------------------------
// Fake JWT Provider
// ------------------------

type FakeJWTProvider struct {
	GenerateTokenFunc func(claims *authdomain.Claims, ttl time.Duration) (string, error)
	ValidateTokenFunc func(tokenString string) (*authdomain.Claims, error)
}

func (f *FakeJWTProvider) GenerateToken(claims *authdomain.Claims, ttl time.Duration) (string, error) {
	if f.GenerateTokenFunc != nil {
		return f.GenerateTokenFunc(claims, ttl)
	}
	return "fake-token", nil
}

func (f *FakeJWTProvider) ValidateToken(tokenString string) (*authdomain.Claims, error) {
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(tokenString)
	}
	return &authdomain.Claims{}, nil
}

var _ authjwt.Provider = (*FakeJWTProvider)(nil)

// ------------------------
// Fake Team Credentials
// ------------------------

type FakeTeamCredentials struct {
	trace []string

	GetCredentialsFunc func(ctx context.Context, teamCode string) (*TeamCredential, error)
}

func (f *FakeTeamCredentials) GetCredentials(ctx context.Context, teamCode string) (*TeamCredential, error) {
	f.trace = append(f.trace, "GetCredentials")
	if f.GetCredentialsFunc != nil {
		return f.GetCredentialsFunc(ctx, teamCode)
	}
	return nil, ErrUnknownTeam
}

func (f *FakeTeamCredentials) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ TeamCredentials = (*FakeTeamCredentials)(nil)
