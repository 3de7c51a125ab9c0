// Package common provides small shared utilities.
package common

import (
	"fmt"
	"time"
)

// Timer measures elapsed wall time for a named phase of work.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
}

// NewNamedTimer starts a timer for the given phase name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.elapsed = time.Since(t.start)
	return t.elapsed
}

// Name returns the phase name.
func (t *Timer) Name() string { return t.name }

// String formats the recorded duration, only meaningful after Stop.
func (t *Timer) String() string {
	if t.name == "" {
		return t.elapsed.String()
	}
	return fmt.Sprintf("%s: %v", t.name, t.elapsed)
}
