package data

import "time"

// TimeProvider abstracts the clock so repository timestamps can be
// pinned in tests.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

func (*RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider always reports the same instant. Advance moves it
// forward to simulate the passage of time between repository calls.
type FixedTimeProvider struct {
	now time.Time
}

func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: t}
}

func (f *FixedTimeProvider) Now() time.Time { return f.now }

func (f *FixedTimeProvider) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}
