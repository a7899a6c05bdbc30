package submissiondomain

import (
	"math"
	"time"
)

// decaySegment interpolates linearly from start to start-drop over [from, to) seconds.
type decaySegment struct {
	from, to    float64
	start, drop float64
}

var decayCurve = []decaySegment{
	{from: 0, to: 300, start: 1.00, drop: 0.01},
	{from: 300, to: 900, start: 0.99, drop: 0.02},
	{from: 900, to: 1800, start: 0.97, drop: 0.02},
	{from: 1800, to: 3600, start: 0.95, drop: 0.05},
	{from: 3600, to: 5400, start: 0.90, drop: 0.05},
	{from: 5400, to: 7200, start: 0.85, drop: 0.05},
}

// flatSteps hold the multiplier until the given elapsed second.
var flatSteps = []struct {
	until      float64
	multiplier float64
}{
	{until: 3 * 3600, multiplier: 0.80},
	{until: 4 * 3600, multiplier: 0.75},
	{until: 5 * 3600, multiplier: 0.70},
	{until: 6 * 3600, multiplier: 0.65},
}

const floorMultiplier = 0.60

// ScoreInput is everything the scoring engine needs for one attempt.
type ScoreInput struct {
	RoundStart    time.Time
	SubmittedAt   time.Time
	AttemptNumber int
	BasePoints    float64
	HintPenalty   float64
	// Schedule selects the attempt penalty; nil means DefaultPenaltySchedule.
	Schedule *PenaltySchedule
}

// Breakdown is the auditable result of Score.
type Breakdown struct {
	BasePoints     float64 `json:"basePoints"`
	RawPoints      float64 `json:"rawPoints"`
	FinalPoints    float64 `json:"finalPoints"`
	TimeMultiplier float64 `json:"timeMultiplier"`
	AttemptPenalty float64 `json:"attemptPenalty"`
	HintPenalty    float64 `json:"hintPenalty"`
}

// Score computes the points for a correct flag. Submissions recorded before
// the round start are scored as if submitted at the start.
func Score(in ScoreInput) Breakdown {
	schedule := DefaultPenaltySchedule
	if in.Schedule != nil {
		schedule = *in.Schedule
	}

	multiplier := TimeMultiplier(in.SubmittedAt.Sub(in.RoundStart))
	penalty := schedule.Fraction(in.AttemptNumber)
	hint := math.Max(0, in.HintPenalty)

	raw := round1(in.BasePoints * multiplier * (1 - penalty))
	final := round1(math.Max(0, raw-hint))

	return Breakdown{
		BasePoints:     in.BasePoints,
		RawPoints:      raw,
		FinalPoints:    final,
		TimeMultiplier: multiplier,
		AttemptPenalty: penalty,
		HintPenalty:    hint,
	}
}

// TimeMultiplier returns the decay factor for the elapsed time since round start.
func TimeMultiplier(elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds < 0 {
		seconds = 0
	}

	for _, seg := range decayCurve {
		if seconds < seg.to {
			return seg.start - ((seconds-seg.from)/(seg.to-seg.from))*seg.drop
		}
	}
	for _, step := range flatSteps {
		if seconds < step.until {
			return step.multiplier
		}
	}
	return floorMultiplier
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
