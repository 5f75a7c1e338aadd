// Package clock lets timestamps on specs, steps, sessions and audit records
// come from an injectable source, so tests can pin them.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

var _ Clock = RealClock{}
