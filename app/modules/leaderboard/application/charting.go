package leaderboardservice

import (
	"bytes"
	"fmt"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette colours the scoreboard chart.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Leader     drawing.Color
	Text       drawing.Color
}

// DefaultPalette is the event's dark theme.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("0f1720"),
	Bar:        drawing.ColorFromHex("2f855a"),
	Leader:     drawing.ColorFromHex("d69e2e"),
	Text:       drawing.ColorFromHex("e2e8f0"),
}

// GenerateStandingsChart produces a PNG bar chart of ranked teams.
func GenerateStandingsChart(entries []leaderboarddomain.Entry, palette ChartPalette) ([]byte, error) {
	maxPoints := 0.0
	for _, e := range entries {
		if e.Points > maxPoints {
			maxPoints = e.Points
		}
	}
	rangeMax := maxPoints * 1.1

	bars := make([]chart.Value, 0, len(entries))
	for _, e := range entries {
		fill := palette.Bar
		if e.Rank == 1 {
			fill = palette.Leader
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("#%d %s", e.Rank, e.TeamCode),
			Value: e.Points,
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: fill,
				StrokeWidth: 0,
			},
		})
	}
	// go-chart needs at least one bar and a non-zero range
	if maxPoints == 0 {
		bars = []chart.Value{{Label: "No solves yet", Value: 0}}
		rangeMax = 1
	}

	barWidth := 700 / (2 * len(bars))
	if barWidth > 48 {
		barWidth = 48
	}

	graph := chart.BarChart{
		Title:  "Medusa CTF standings",
		Width:  960,
		Height: 480,
		TitleStyle: chart.Style{
			FontColor: palette.Text,
		},
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40},
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.Style{
			FontColor: palette.Text,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontColor: palette.Text,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: rangeMax,
			},
		},
		BarWidth: barWidth,
		Bars:     bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
