package core

import "time"

// Clock abstracts wall-clock reads so lifecycle timing can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

// MonotonicClock reads the system clock.
type MonotonicClock struct{}

func (MonotonicClock) Now() time.Time { return time.Now() }

// MockClock is a manually advanced Clock for tests. It is not safe for
// concurrent use.
type MockClock struct {
	Current time.Time
}

// NewMockClock returns a MockClock pinned to start.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{Current: start}
}

func (c *MockClock) Now() time.Time { return c.Current }

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}

// Set pins the clock to t.
func (c *MockClock) Set(t time.Time) {
	c.Current = t
}
