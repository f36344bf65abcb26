// Package clock provides the time source for the engagement engine.
//
// Engine code never calls time.Now() directly. The daemon injects Real();
// tests inject Fixed or Func clocks so day boundaries are deterministic.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual system time in the local zone.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.T
}

// FuncClock wraps a function as a Clock.
type FuncClock func() time.Time

// Now calls the wrapped function.
func (f FuncClock) Now() time.Time {
	return f()
}

// Real returns a Clock backed by the system time.
func Real() Clock {
	return RealClock{}
}

// Fixed returns a Clock that always returns t.
func Fixed(t time.Time) Clock {
	return FixedClock{T: t}
}

// Func returns a Clock backed by f.
func Func(f func() time.Time) Clock {
	return FuncClock(f)
}
