package leaderboarddomain

import (
	"math"
	"sort"
	"time"
)

// Standing is one team's aggregate over its correct attempts.
type Standing struct {
	TeamCode    string     `json:"teamCode"`
	TeamName    string     `json:"teamName"`
	Points      float64    `json:"points"`
	Solves      int        `json:"solves"`
	LastSolveAt *time.Time `json:"lastSolveAt,omitempty"`
}

// Entry is a ranked Standing.
type Entry struct {
	Rank int `json:"rank"`
	Standing
}

// Rank orders standings by points, then by earliest last solve, then by
// team code. Teams without a solve sort after every team that has one at
// the same score. Equal points and equal last solve share a rank.
func Rank(standings []Standing) []Entry {
	sorted := make([]Standing, len(standings))
	copy(sorted, standings)
	for i := range sorted {
		sorted[i].Points = math.Round(sorted[i].Points*10) / 10
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if !sameInstant(a.LastSolveAt, b.LastSolveAt) {
			return earlier(a.LastSolveAt, b.LastSolveAt)
		}
		return a.TeamCode < b.TeamCode
	})

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		rank := i + 1
		if i > 0 {
			prev := entries[i-1]
			if prev.Points == s.Points && sameInstant(prev.LastSolveAt, s.LastSolveAt) {
				rank = prev.Rank
			}
		}
		entries[i] = Entry{Rank: rank, Standing: s}
	}
	return entries
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// earlier treats nil as later than any time.
func earlier(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
