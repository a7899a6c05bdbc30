package submissiondomain

// PenaltySchedule maps an attempt ordinal to the fraction deducted from the
// decayed score. Ordinals past the end of the schedule use its last entry.
type PenaltySchedule struct {
	name      string
	fractions []float64
}

var (
	// DefaultPenaltySchedule is used when no family schedule is supplied.
	DefaultPenaltySchedule = PenaltySchedule{name: "default", fractions: []float64{0, 0.25, 0.40}}

	// StandardPenaltySchedule applies to round 1 and android.
	StandardPenaltySchedule = PenaltySchedule{name: "standard", fractions: []float64{0, 0.25}}

	// PWNPenaltySchedule applies to the shared pwn-user/pwn-root budget.
	PWNPenaltySchedule = PenaltySchedule{name: "pwn", fractions: []float64{0, 0, 0.25}}
)

// Fraction returns the penalty for the 1-based ordinal.
func (s PenaltySchedule) Fraction(ordinal int) float64 {
	if ordinal < 1 || len(s.fractions) == 0 {
		return 0
	}
	if ordinal > len(s.fractions) {
		return s.fractions[len(s.fractions)-1]
	}
	return s.fractions[ordinal-1]
}

func (s PenaltySchedule) Name() string { return s.name }
