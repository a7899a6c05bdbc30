package sessiondomain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRound  = errors.New("round must be 1 or 2")
	ErrRoundMismatch = errors.New("round does not match the authenticated session")
	ErrNotStarted    = errors.New("round not started")
	ErrMissingTeam   = errors.New("team code is required")
)

// ValidateRound reports ErrInvalidRound for anything but 1 or 2.
func ValidateRound(round int) error {
	if round != 1 && round != 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidRound, round)
	}
	return nil
}

// ElapsedSeconds is never negative; a start in the future reads as zero.
func ElapsedSeconds(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
