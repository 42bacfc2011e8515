// Package clock abstracts time so run reports can be stamped
// deterministically in tests.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current system time in UTC.
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FakeClock returns a fake time that advances by a fixed step after every
// call to Now, so consecutive stamps differ.
type FakeClock struct {
	current time.Time
	step    time.Duration
}

// NewTickingClock creates a FakeClock starting at t. A zero step keeps the
// time fixed.
func NewTickingClock(t time.Time, step time.Duration) *FakeClock {
	return &FakeClock{current: t, step: step}
}

// Now returns the fake time, then advances it by the tick step.
func (c *FakeClock) Now() time.Time {
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}
