package submissiondomain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minBodyLen = 5
	maxBodyLen = 200

	bodyCharset = `[A-Za-z0-9_\-!@#$%&*().,?:;+=~/]`
)

// FlagFormat validates flag text per challenge family.
type FlagFormat struct {
	prefix    string
	pwnPrefix string
	standard  *regexp.Regexp
	pwn       *regexp.Regexp
}

// NewFlagFormat compiles the patterns for the two families.
func NewFlagFormat(prefix, pwnPrefix string) (*FlagFormat, error) {
	if prefix == "" || pwnPrefix == "" {
		return nil, fmt.Errorf("flag prefixes must not be empty")
	}
	if prefix == pwnPrefix {
		return nil, fmt.Errorf("flag prefixes must differ")
	}
	return &FlagFormat{
		prefix:    prefix,
		pwnPrefix: pwnPrefix,
		standard:  compileFlagPattern(prefix),
		pwn:       compileFlagPattern(pwnPrefix),
	}, nil
}

func compileFlagPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%s\{%s{%d,%d}\}$`, regexp.QuoteMeta(prefix), bodyCharset, minBodyLen, maxBodyLen))
}

// Normalize trims surrounding whitespace from submitted flag text.
func Normalize(flag string) string {
	return strings.TrimSpace(flag)
}

// Validate checks a normalized flag against the family of key.
func (f *FlagFormat) Validate(key ChallengeKey, flag string) error {
	if flag == "" {
		return &ValidationError{Field: "flag", Reason: "flag is required"}
	}

	pattern, prefix := f.standard, f.prefix
	if key.IsPWN() {
		pattern, prefix = f.pwn, f.pwnPrefix
	}

	if !pattern.MatchString(flag) {
		return &ValidationError{
			Field:  "flag",
			Reason: fmt.Sprintf("flag must look like %s{...} with %d-%d allowed characters", prefix, minBodyLen, maxBodyLen),
		}
	}
	return nil
}
