package teamdb

import "errors"

var (
	ErrNotFound     = errors.New("team not found")
	ErrDuplicateKey = errors.New("team code already registered")
)
