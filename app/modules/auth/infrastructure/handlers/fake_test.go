package authhandlers

import (
	"context"

	authservice "github.com/medusa-ctf/medusa-backend/app/modules/auth/application"
	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	TeamLoginFunc     func(ctx context.Context, req authservice.TeamLoginRequest) (*authservice.LoginResponse, error)
	AdminLoginFunc    func(ctx context.Context, username, password string) (*authservice.LoginResponse, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

func (f *FakeService) TeamLogin(ctx context.Context, req authservice.TeamLoginRequest) (*authservice.LoginResponse, error) {
	if f.TeamLoginFunc != nil {
		return f.TeamLoginFunc(ctx, req)
	}
	return &authservice.LoginResponse{Token: "fake-token", TeamCode: req.TeamCode, Round: req.Round, Role: authdomain.RoleTeam}, nil
}

func (f *FakeService) AdminLogin(ctx context.Context, username, password string) (*authservice.LoginResponse, error) {
	if f.AdminLoginFunc != nil {
		return f.AdminLoginFunc(ctx, username, password)
	}
	return &authservice.LoginResponse{Token: "fake-admin-token", Role: authdomain.RoleAdmin}, nil
}

func (f *FakeService) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(ctx, tokenString)
	}
	return &authdomain.Claims{}, nil
}

var _ authservice.Service = (*FakeService)(nil)
