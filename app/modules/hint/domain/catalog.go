package hintdomain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBucket  = errors.New("unknown hint bucket")
	ErrUnknownHint    = errors.New("unknown hint")
	ErrOutOfOrder     = errors.New("hints unlock in order")
	ErrRoundMismatch  = errors.New("hint bucket belongs to another round")
	ErrInvalidCatalog = errors.New("invalid hint catalog")
)

// Bucket groups hints whose costs count against one challenge scope. The
// PWN bucket is shared by the user and root flags.
type Bucket string

const (
	BucketRound1  Bucket = "round1"
	BucketAndroid Bucket = "android"
	BucketPWN     Bucket = "pwn"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketRound1, BucketAndroid, BucketPWN}

// ParseBucket accepts a bucket name in any case.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BucketRound1, BucketAndroid, BucketPWN:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

// Round returns the round whose flags the bucket's hints are about.
func (b Bucket) Round() int {
	if b == BucketRound1 {
		return 1
	}
	return 2
}

// Hint is one catalog entry. Number is 1-based within its bucket.
type Hint struct {
	Bucket Bucket  `json:"bucket"`
	Number int     `json:"number"`
	Cost   float64 `json:"cost"`
	Text   string  `json:"text,omitempty"`
}

// Entry is the raw configuration of one hint.
type Entry struct {
	Cost float64
	Text string
}

// Catalog is the ordered, immutable list of hints per bucket.
type Catalog struct {
	hints map[Bucket][]Hint
}

// NewCatalog numbers the entries of each bucket from 1.
func NewCatalog(entries map[Bucket][]Entry) (*Catalog, error) {
	c := &Catalog{hints: make(map[Bucket][]Hint, len(entries))}
	for bucket, list := range entries {
		if _, err := ParseBucket(string(bucket)); err != nil {
			return nil, err
		}
		hints := make([]Hint, 0, len(list))
		for i, e := range list {
			if e.Cost < 0 {
				return nil, fmt.Errorf("%w: %s hint %d has negative cost", ErrInvalidCatalog, bucket, i+1)
			}
			if strings.TrimSpace(e.Text) == "" {
				return nil, fmt.Errorf("%w: %s hint %d has no text", ErrInvalidCatalog, bucket, i+1)
			}
			hints = append(hints, Hint{Bucket: bucket, Number: i + 1, Cost: e.Cost, Text: e.Text})
		}
		c.hints[bucket] = hints
	}
	return c, nil
}

// Get returns hint number n of bucket.
func (c *Catalog) Get(bucket Bucket, n int) (Hint, error) {
	hints := c.hints[bucket]
	if n < 1 || n > len(hints) {
		return Hint{}, fmt.Errorf("%w: %s #%d", ErrUnknownHint, bucket, n)
	}
	return hints[n-1], nil
}

// Len reports how many hints bucket has.
func (c *Catalog) Len(bucket Bucket) int {
	return len(c.hints[bucket])
}
