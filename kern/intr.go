// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

// IntrLevel is the state of the simulated external interrupt line.
type IntrLevel int8

const (
	IntrOff IntrLevel = iota
	IntrOn
)

func (l IntrLevel) String() string {
	if l == IntrOff {
		return "off"
	}
	return "on"
}

// IntrDisable turns external interrupts off and returns the prior
// level. Every mutation of shared scheduler state happens between
// IntrDisable and IntrRestore. Because exactly one goroutine holds
// the run token at a time, the level is bookkeeping that lets the
// kernel assert its atomic-section discipline; the token is what
// makes the sections atomic.
func (sys *System) IntrDisable() IntrLevel {
	old := sys.intr
	sys.intr = IntrOff
	return old
}

// IntrRestore sets the interrupt level back to a level previously
// returned by IntrDisable. A thread that blocked with interrupts off
// restores its own saved level after it is scheduled again.
func (sys *System) IntrRestore(l IntrLevel) {
	sys.intr = l
}

// Intr reports the current interrupt level.
func (sys *System) Intr() IntrLevel {
	return sys.intr
}
