package teamservice

import "errors"

var (
	ErrInvalidTeam  = errors.New("invalid team")
	ErrTeamExists   = errors.New("team already exists")
	ErrTeamNotFound = errors.New("team not found")
)
