package leaderboarddomain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func at(minute int) *time.Time {
	t := time.Date(2026, 10, 1, 9, minute, 0, 0, time.UTC)
	return &t
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		standings []Standing
		want      []string
		wantRanks []int
	}{
		{
			name: "points first",
			standings: []Standing{
				{TeamCode: "B", Points: 750, LastSolveAt: at(5)},
				{TeamCode: "A", Points: 1000, LastSolveAt: at(30)},
			},
			want:      []string{"A", "B"},
			wantRanks: []int{1, 2},
		},
		{
			name: "earliest last solve breaks point ties",
			standings: []Standing{
				{TeamCode: "A", Points: 900, LastSolveAt: at(40)},
				{TeamCode: "B", Points: 900, LastSolveAt: at(20)},
			},
			want:      []string{"B", "A"},
			wantRanks: []int{1, 2},
		},
		{
			name: "teams without solves come last",
			standings: []Standing{
				{TeamCode: "Z"},
				{TeamCode: "C", Points: 10, LastSolveAt: at(1)},
				{TeamCode: "A"},
			},
			want:      []string{"C", "A", "Z"},
			wantRanks: []int{1, 2, 2},
		},
		{
			name: "float noise is rounded before comparing",
			standings: []Standing{
				{TeamCode: "A", Points: 1733.4999999, LastSolveAt: at(10)},
				{TeamCode: "B", Points: 1733.5, LastSolveAt: at(10)},
			},
			want:      []string{"A", "B"},
			wantRanks: []int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(tt.standings)
			var codes []string
			var ranks []int
			for _, e := range got {
				codes = append(codes, e.TeamCode)
				ranks = append(ranks, e.Rank)
			}
			if diff := cmp.Diff(tt.want, codes); diff != "" {
				t.Errorf("Rank() order mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRanks, ranks); diff != "" {
				t.Errorf("Rank() ranks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
