package submissiondomain

import (
	"fmt"
	"log/slog"
)

// FlagSecrets holds the correct flag per challenge. Built once at start-up
// and never re-read; it renders as redacted in logs and fmt output.
type FlagSecrets struct {
	round1  string
	android string
	pwnUser string
	pwnRoot string
}

// NewFlagSecrets validates every secret against format and fails on the first bad one.
func NewFlagSecrets(format *FlagFormat, round1, android, pwnUser, pwnRoot string) (FlagSecrets, error) {
	checks := []struct {
		name   string
		key    ChallengeKey
		secret string
	}{
		{"round1", KeyRound1, round1},
		{"android", KeyAndroid, android},
		{"pwn-user", KeyPwnCombined, pwnUser},
		{"pwn-root", KeyPwnCombined, pwnRoot},
	}
	for _, c := range checks {
		if c.secret == "" {
			return FlagSecrets{}, fmt.Errorf("secret for %s is missing", c.name)
		}
		if err := format.Validate(c.key, c.secret); err != nil {
			return FlagSecrets{}, fmt.Errorf("secret for %s is malformed", c.name)
		}
	}

	return FlagSecrets{round1: round1, android: android, pwnUser: pwnUser, pwnRoot: pwnRoot}, nil
}

// Secret returns the flag for the exact challenge type.
func (s FlagSecrets) Secret(challengeType ChallengeType) (string, bool) {
	var v string
	switch challengeType {
	case ChallengeNone:
		v = s.round1
	case ChallengeAndroid:
		v = s.android
	case ChallengePWNUser:
		v = s.pwnUser
	case ChallengePWNRoot:
		v = s.pwnRoot
	}
	return v, v != ""
}

func (s FlagSecrets) String() string { return "FlagSecrets{redacted}" }

func (s FlagSecrets) GoString() string { return s.String() }

func (s FlagSecrets) LogValue() slog.Value { return slog.StringValue("redacted") }
