package sessionservice

import (
	"context"
	"sync"
)

// ------------------------
// Fake Scheduler
// ------------------------

type FakeScheduler struct {
	mu    sync.Mutex
	calls []string

	ScheduleRecalculationFunc func(ctx context.Context, teamCode string, round int) error
}

func (f *FakeScheduler) ScheduleRecalculation(ctx context.Context, teamCode string, round int) error {
	f.mu.Lock()
	f.calls = append(f.calls, teamCode)
	f.mu.Unlock()
	if f.ScheduleRecalculationFunc != nil {
		return f.ScheduleRecalculationFunc(ctx, teamCode, round)
	}
	return nil
}

func (f *FakeScheduler) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var _ RecalculationScheduler = (*FakeScheduler)(nil)
