package engine

import "time"

// TimeProvider abstracts the wall clock so frame timing is testable
type TimeProvider interface {
	Now() time.Time
}

// MonotonicTimeProvider returns real system time with monotonic clock readings
type MonotonicTimeProvider struct{}

// NewMonotonicTimeProvider creates a monotonic time provider
func NewMonotonicTimeProvider() *MonotonicTimeProvider {
	return &MonotonicTimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *MonotonicTimeProvider) Now() time.Time {
	return time.Now()
}
