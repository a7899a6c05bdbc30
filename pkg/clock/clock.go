package clock

import "time"

// Clock abstracts wall-clock reads so scoring and session code can be tested
// against fixed instants.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FakeClock is a fake implementation of the Clock interface.
type FakeClock struct {
	NowFn func() time.Time
}

func (f *FakeClock) Now() time.Time {
	if f.NowFn != nil {
		return f.NowFn()
	}
	return time.Now().UTC()
}

// Fixed returns a FakeClock pinned to t.
func Fixed(t time.Time) *FakeClock {
	return &FakeClock{NowFn: func() time.Time { return t }}
}
