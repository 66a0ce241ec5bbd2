// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import (
	"fmt"
)

// A Thread is one schedulable execution context. Each thread runs on
// its own goroutine, but exactly one thread executes at a time: the
// run token is handed from goroutine to goroutine through the sched
// channels, so the kernel behaves as a uniprocessor.
type Thread struct {
	Sys  *System
	Name string

	id         int
	status     int8
	basePri    int
	donations  []donation // received donations, highest amount first
	waitingFor *Lock      // lock this thread is blocked trying to acquire
	held       []*Lock    // locks this thread holds

	inq   *Queue // wait or ready queue this thread is on, if any
	qseq  uint64 // enqueue order within inq
	ticks int    // ticks charged since last dispatched

	sched chan bool
	fn    func(*Thread)
}

// A donation is one unit of priority transfer: the donor's effective
// priority at the time it blocked, tied to the lock acquisition that
// caused it so that releasing that lock retracts exactly this record.
type donation struct {
	amount int
	donor  *Thread
	lock   *Lock
}

// A System is one simulated uniprocessor kernel.
type System struct {
	Trace bool

	threads []*Thread
	ready   Queue
	cur     *Thread
	nextID  int
	intr    IntrLevel
	runrun  int8 // reschedule due; checked on the way out of kernel operations
	ticks   int64

	idle chan bool
}

// NewSystem returns an empty system with no threads.
// The caller drives it with Run.
func NewSystem() *System {
	sys := new(System)
	sys.intr = IntrOn
	sys.idle = make(chan bool)
	return sys
}

// Current returns the running thread, or nil when the system is idle.
func (sys *System) Current() *Thread {
	return sys.cur
}

// Ticks returns the number of timer ticks recorded so far.
func (sys *System) Ticks() int64 {
	return sys.ticks
}

// Create initializes a new thread with the given name, base priority,
// and body, and inserts it into the ready queue. If the creator is
// itself a thread and the new thread outranks it, the creator yields
// before Create returns.
func (sys *System) Create(name string, pri int, fn func(*Thread)) (*Thread, error) {
	checkPri(pri)
	if len(sys.threads) >= NTHREAD {
		return nil, fmt.Errorf("too many threads")
	}
	old := sys.IntrDisable()
	t := &Thread{
		Sys:     sys,
		Name:    name,
		basePri: pri,
		status:  _SRDY,
		sched:   make(chan bool),
		fn:      fn,
	}
	sys.nextID++
	t.id = sys.nextID
	sys.threads = append(sys.threads, t)
	go t.main()
	sys.ready.Insert(t)
	sys.checkPreempt()
	sys.IntrRestore(old)
	sys.maybeYield()
	return t, nil
}

// main is the body of a thread's goroutine: wait to be dispatched for
// the first time, run the thread function, then terminate.
func (t *Thread) main() {
	<-t.sched
	t.fn(t)
	t.Exit()
}

// ID returns the thread's unique identifier.
func (t *Thread) ID() int {
	return t.id
}

// Priority returns t's effective priority: the maximum of its base
// priority and its highest received donation. It mutates nothing, so
// back-to-back calls return the same value.
func (t *Thread) Priority() int {
	if len(t.donations) > 0 && t.donations[0].amount > t.basePri {
		return t.donations[0].amount
	}
	return t.basePri
}

// BasePriority returns t's base priority, ignoring donations.
func (t *Thread) BasePriority() int {
	return t.basePri
}

// SetPriority changes t's base priority. Donations are unaffected:
// the base is one candidate input to the effective-priority max, never
// suppressed by a donation and never suppressing one. If the change
// leaves the running thread outranked by a ready thread, the running
// thread yields before SetPriority returns.
func (t *Thread) SetPriority(pri int) {
	checkPri(pri)
	sys := t.Sys
	old := sys.IntrDisable()
	t.basePri = pri
	sys.checkPreempt()
	sys.IntrRestore(old)
	sys.maybeYield()
}

func checkPri(pri int) {
	if pri < PriMin || pri > PriMax {
		panic("priority out of range")
	}
}

// HeldLocks returns the locks t currently holds.
func (t *Thread) HeldLocks() []*Lock {
	return append([]*Lock(nil), t.held...)
}

// addDonation records a donation, keeping the list sorted by amount.
func (t *Thread) addDonation(d donation) {
	i := 0
	for i < len(t.donations) && t.donations[i].amount >= d.amount {
		i++
	}
	t.donations = append(t.donations, donation{})
	copy(t.donations[i+1:], t.donations[i:])
	t.donations[i] = d
}

// raiseDonation raises the donation from donor tied to l up to amount
// and re-sorts, reporting whether the record was found and smaller.
func (t *Thread) raiseDonation(donor *Thread, l *Lock, amount int) bool {
	for i := range t.donations {
		d := t.donations[i]
		if d.donor == donor && d.lock == l {
			if d.amount >= amount {
				return false
			}
			t.donations = append(t.donations[:i], t.donations[i+1:]...)
			d.amount = amount
			t.addDonation(d)
			return true
		}
	}
	return false
}

// dropDonations removes every donation tied to l, leaving donations
// received through other locks in place.
func (t *Thread) dropDonations(l *Lock) {
	w := t.donations[:0]
	for _, d := range t.donations {
		if d.lock != l {
			w = append(w, d)
		}
	}
	t.donations = w
}

// unhold removes l from t's held-lock list.
func (t *Thread) unhold(l *Lock) {
	for i, h := range t.held {
		if h == l {
			t.held = append(t.held[:i], t.held[i+1:]...)
			return
		}
	}
	panic("lock: not held")
}

// ThreadState is a thread's scheduling state.
type ThreadState int

const (
	Running ThreadState = iota
	Ready
	Blocked
	Dying
)

func (s ThreadState) String() string {
	switch s {
	case Running:
		return "Running"
	case Ready:
		return "Ready"
	case Blocked:
		return "Blocked"
	case Dying:
		return "Dying"
	}
	return fmt.Sprintf("ThreadState(%d)", int(s))
}

// State reports t's scheduling state.
func (t *Thread) State() ThreadState {
	switch t.status {
	case _SRUN:
		return Running
	case _SRDY:
		return Ready
	case _SWAIT:
		return Blocked
	}
	return Dying
}
