// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import (
	"fmt"
	"os"
	"runtime"
)

/*
 * Give up the processor till the scheduler hands the run token back.
 * The caller must already have moved itself off the running state:
 * onto the ready queue for a yield, onto a waiters list for a block,
 * or into the zombie state for an exit. Inserting first matters,
 * because the caller must be a candidate for immediate re-selection
 * when it is still the highest priority.
 */
func (t *Thread) swtch() {
	sys := t.Sys
	sys.runrun = 0
	sys.reap()
	next := sys.ready.PopMax()
	if next == t {
		t.status = _SRUN
		return
	}
	sys.cur = next
	if next != nil {
		next.status = _SRUN
		next.ticks = 0
		if sys.Trace {
			fmt.Fprintf(os.Stderr, "[%d %s] -> [%d %s] pri %d\n", t.id, t.Name, next.id, next.Name, next.Priority())
		}
		next.sched <- true
	} else {
		if sys.Trace {
			fmt.Fprintf(os.Stderr, "[%d %s] -> idle\n", t.id, t.Name)
		}
		sys.idle <- true
	}
	if t.status == _SZOMB {
		runtime.Goexit()
	}
	<-t.sched
}

/*
 * Set the thread running: move it from blocked to the ready queue.
 * Never dispatches it directly; at most marks a reschedule due when
 * the thread outranks the running one.
 */
func (sys *System) setrun(t *Thread) {
	if t.status == _SZOMB {
		panic("zombie")
	}
	if t.status != _SWAIT {
		panic("setrun: not blocked")
	}
	t.status = _SRDY
	sys.ready.Insert(t)
	sys.checkPreempt()
}

// checkPreempt marks a reschedule due when some ready thread has a
// strictly greater effective priority than the running one.
func (sys *System) checkPreempt() {
	if sys.cur == nil {
		return
	}
	if head := sys.ready.PeekMax(); head != nil && head.Priority() > sys.cur.Priority() {
		sys.runrun++
	}
}

// maybeYield yields the processor if a reschedule became due during
// the operation that is now returning.
func (sys *System) maybeYield() {
	if sys.runrun != 0 {
		sys.runrun = 0
		if sys.cur != nil {
			sys.cur.Yield()
		}
	}
}

// RescheduleDue reports whether a reschedule is due, for tick sources
// that batch the context switch separately from the check.
func (sys *System) RescheduleDue() bool {
	return sys.runrun != 0
}

// reap drops zombie threads from the thread table. Called only at
// dispatch, so a thread is never reclaimed while it can still run.
func (sys *System) reap() {
	w := sys.threads[:0]
	for _, t := range sys.threads {
		if t.status != _SZOMB {
			w = append(w, t)
		}
	}
	sys.threads = w
}

// Run dispatches threads until the system goes idle: no thread is
// running and the ready queue is empty. Threads blocked on a
// primitive stay blocked across calls; the driver may Unblock one
// and call Run again. The driver plays the role of the idle thread.
func (sys *System) Run() {
	for {
		sys.runrun = 0
		sys.reap()
		next := sys.ready.PopMax()
		if next == nil {
			return
		}
		next.status = _SRUN
		next.ticks = 0
		sys.cur = next
		if sys.Trace {
			fmt.Fprintf(os.Stderr, "idle -> [%d %s] pri %d\n", next.id, next.Name, next.Priority())
		}
		next.sched <- true
		<-sys.idle
	}
}

// Yield moves the calling thread to the ready queue and dispatches
// the highest-priority ready thread, which may be the caller itself.
func (t *Thread) Yield() {
	sys := t.Sys
	if t != sys.cur {
		panic("yield: not current")
	}
	old := sys.IntrDisable()
	t.status = _SRDY
	sys.ready.Insert(t)
	t.swtch()
	sys.IntrRestore(old)
}

// Block transitions the calling thread to blocked and schedules away.
// Interrupts must be off, and the caller must already have recorded
// the thread on whatever wait structure will later hand it to
// Unblock; nothing else will ever wake it.
func (t *Thread) Block() {
	sys := t.Sys
	if sys.intr != IntrOff {
		panic("block: interrupts on")
	}
	if t != sys.cur {
		panic("block: not current")
	}
	t.status = _SWAIT
	t.swtch()
}

// Unblock moves a blocked thread to the ready queue. It is the
// waking half of Block, usable by collaborators with custom wait
// structures. When called from a running thread that the woken one
// outranks, the caller yields before Unblock returns; when called
// from the idle driver, the next Run dispatch picks the right thread.
func (sys *System) Unblock(t *Thread) {
	old := sys.IntrDisable()
	sys.setrun(t)
	sys.IntrRestore(old)
	sys.maybeYield()
}

// Exit terminates the calling thread; it never returns. The thread's
// resources are reclaimed at the next dispatch, never while it runs.
func (t *Thread) Exit() {
	sys := t.Sys
	if t != sys.cur {
		panic("exit: not current")
	}
	if len(t.held) > 0 {
		panic("exit: holding locks")
	}
	sys.IntrDisable()
	t.status = _SZOMB
	t.swtch()
	panic("exit: zombie ran")
}

// Tick is the timer hook, invoked in the context of the running
// thread. It charges the current quantum and switches away when the
// slice is used up or a reschedule is already due.
func (sys *System) Tick() {
	t := sys.cur
	if t == nil {
		return
	}
	sys.ticks++
	t.ticks++
	if t.ticks >= TimeSlice {
		sys.runrun++
	}
	sys.maybeYield()
}
