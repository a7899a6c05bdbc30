package submissiondomain

import "fmt"

// ChallengeType is the round-2 challenge selector. Round 1 uses ChallengeNone.
type ChallengeType string

const (
	ChallengeNone    ChallengeType = ""
	ChallengeAndroid ChallengeType = "android"
	ChallengePWNUser ChallengeType = "pwn-user"
	ChallengePWNRoot ChallengeType = "pwn-root"
)

// IsValid reports whether t is one of the round-2 challenge types.
func (t ChallengeType) IsValid() bool {
	switch t {
	case ChallengeAndroid, ChallengePWNUser, ChallengePWNRoot:
		return true
	default:
		return false
	}
}

// Label is the metrics/export label for t.
func (t ChallengeType) Label() string {
	if t == ChallengeNone {
		return "round1"
	}
	return string(t)
}

// ChallengeKey identifies the scope attempt ceilings and duplicate checks
// apply to. pwn-user and pwn-root share PwnCombined.
type ChallengeKey int

const (
	KeyRound1 ChallengeKey = iota + 1
	KeyAndroid
	KeyPwnCombined
)

// ResolveChallengeKey maps a (round, challengeType) pair to its scope.
func ResolveChallengeKey(round int, challengeType ChallengeType) (ChallengeKey, error) {
	switch round {
	case 1:
		if challengeType != ChallengeNone {
			return 0, &ValidationError{Field: "challengeType", Reason: "round 1 has no challenge type"}
		}
		return KeyRound1, nil
	case 2:
		switch challengeType {
		case ChallengeAndroid:
			return KeyAndroid, nil
		case ChallengePWNUser, ChallengePWNRoot:
			return KeyPwnCombined, nil
		case ChallengeNone:
			return 0, &ValidationError{Field: "challengeType", Reason: "round 2 requires a challenge type"}
		default:
			return 0, &ValidationError{Field: "challengeType", Reason: fmt.Sprintf("unknown challenge type %q", challengeType)}
		}
	default:
		return 0, &ValidationError{Field: "round", Reason: "round must be 1 or 2"}
	}
}

func (k ChallengeKey) String() string {
	switch k {
	case KeyRound1:
		return "round1"
	case KeyAndroid:
		return "android"
	case KeyPwnCombined:
		return "pwn"
	default:
		return "unknown"
	}
}

// Round returns the round the scope belongs to.
func (k ChallengeKey) Round() int {
	if k == KeyRound1 {
		return 1
	}
	return 2
}

// MaxAttempts is the attempt ceiling for the scope.
func (k ChallengeKey) MaxAttempts() int {
	if k == KeyPwnCombined {
		return 3
	}
	return 2
}

// ScopeTypes lists the challenge types counted together for the scope.
func (k ChallengeKey) ScopeTypes() []ChallengeType {
	switch k {
	case KeyAndroid:
		return []ChallengeType{ChallengeAndroid}
	case KeyPwnCombined:
		return []ChallengeType{ChallengePWNUser, ChallengePWNRoot}
	default:
		return []ChallengeType{ChallengeNone}
	}
}

// IsPWN reports whether flags in the scope use the PWN prefix.
func (k ChallengeKey) IsPWN() bool { return k == KeyPwnCombined }

// HintBucket is the hint catalog bucket whose penalties apply to the scope.
func (k ChallengeKey) HintBucket() string { return k.String() }

// PenaltySchedule returns the attempt penalty schedule of the challenge family.
func (k ChallengeKey) PenaltySchedule() PenaltySchedule {
	if k == KeyPwnCombined {
		return PWNPenaltySchedule
	}
	return StandardPenaltySchedule
}

// BasePoints returns the undecayed value of a correct flag.
func BasePoints(challengeType ChallengeType) float64 {
	switch challengeType {
	case ChallengeAndroid:
		return 750
	case ChallengePWNUser:
		return 450
	case ChallengePWNRoot:
		return 300
	default:
		return DefaultBasePoints
	}
}

// DefaultBasePoints is the value of the round-1 flag.
const DefaultBasePoints = 1000
