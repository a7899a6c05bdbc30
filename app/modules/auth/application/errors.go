package authservice

import "errors"

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken is returned when no token is provided.
	ErrMissingToken = errors.New("missing authentication token")

	// ErrInvalidCredentials is returned for an unknown team, a wrong access code,
	// an inactive team or a wrong admin password. Callers cannot tell which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRound is returned when a login names a round other than 1 or 2.
	ErrInvalidRound = errors.New("round must be 1 or 2")

	// ErrGenerateToken is returned when token generation fails.
	ErrGenerateToken = errors.New("failed to generate token")

	// ErrUnknownTeam is returned by TeamCredentials when no team has the code.
	ErrUnknownTeam = errors.New("unknown team")
)
