package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time to the stores so timestamps can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// New returns the system clock, in UTC.
func New() Clock {
	return realClock{}
}

// Now returns the current UTC time.
func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock is a manually driven clock.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMockClock creates a MockClock starting at the given time.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{current: start}
}

// Now returns the time the clock was last set or advanced to.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}
