// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

/*
 * Synchronization primitives: counting semaphore, lock, condition
 * variable. Blocking happens at exactly three points — Down with a
 * zero count, Acquire on a held lock, Wait — and is atomic with the
 * bookkeeping that precedes it. The lock additionally drives
 * priority donation.
 */

// A Sema is a counting semaphore. Down blocks while the count is
// zero; Up increments it and wakes the highest-priority waiter.
type Sema struct {
	sys     *System
	count   int
	waiters Queue
}

// NewSema returns a semaphore with the given initial count.
func NewSema(sys *System, count int) *Sema {
	if count < 0 {
		panic("sema: negative count")
	}
	return &Sema{sys: sys, count: count}
}

// Down decrements the semaphore, blocking until the count is
// positive. The count is re-checked after waking: another thread may
// have taken the unit first, in which case the caller waits again.
func (s *Sema) Down() {
	sys := s.sys
	t := sys.cur
	if t == nil {
		panic("sema: down while idle")
	}
	old := sys.IntrDisable()
	for s.count == 0 {
		s.waiters.Insert(t)
		t.Block()
	}
	s.count--
	sys.IntrRestore(old)
}

// TryDown decrements the semaphore only if no waiting is needed,
// reporting whether it did.
func (s *Sema) TryDown() bool {
	sys := s.sys
	old := sys.IntrDisable()
	ok := s.count > 0
	if ok {
		s.count--
	}
	sys.IntrRestore(old)
	return ok
}

// Up increments the semaphore and readies its highest-priority
// waiter, if any. An Up with no waiters is remembered in the count,
// so a later Down proceeds without blocking. Up never blocks and may
// be called from the idle driver.
func (s *Sema) Up() {
	sys := s.sys
	old := sys.IntrDisable()
	s.up()
	sys.IntrRestore(old)
	sys.maybeYield()
}

// up is Up without the preemption point, for callers that are about
// to block or switch anyway.
func (s *Sema) up() {
	if w := s.waiters.PopMax(); w != nil {
		s.sys.setrun(w)
	}
	s.count++
}

// Value returns the current count.
func (s *Sema) Value() int {
	return s.count
}

// A Lock is a mutual-exclusion primitive with at most one holder:
// a binary semaphore plus the holder's identity. A thread that
// blocks acquiring a held lock donates its effective priority to the
// holder for as long as the holder keeps the lock.
type Lock struct {
	holder *Thread
	sema   Sema
}

// NewLock returns an unheld lock.
func NewLock(sys *System) *Lock {
	l := new(Lock)
	l.sema = Sema{sys: sys, count: 1}
	return l
}

// Holder returns the thread holding l, or nil.
func (l *Lock) Holder() *Thread {
	return l.holder
}

// Acquire takes the lock, blocking until it is free. Re-acquiring a
// lock already held by the caller is a kernel bug and panics.
func (l *Lock) Acquire() {
	sys := l.sema.sys
	t := sys.cur
	if t == nil {
		panic("lock: acquire while idle")
	}
	if l.holder == t {
		panic("lock: already holder")
	}
	old := sys.IntrDisable()
	if l.holder != nil {
		t.waitingFor = l
		t.donate()
	}
	l.sema.Down()
	l.holder = t
	t.waitingFor = nil
	t.held = append(t.held, l)
	sys.IntrRestore(old)
}

// TryAcquire takes the lock only if it is free, reporting whether it
// did. It never blocks and never donates.
func (l *Lock) TryAcquire() bool {
	sys := l.sema.sys
	t := sys.cur
	if t == nil {
		panic("lock: acquire while idle")
	}
	if l.holder == t {
		panic("lock: already holder")
	}
	old := sys.IntrDisable()
	ok := l.sema.TryDown()
	if ok {
		l.holder = t
		t.held = append(t.held, l)
	}
	sys.IntrRestore(old)
	return ok
}

// Release gives up the lock, retracting every donation received for
// it, and readies the highest-priority waiter, which acquires the
// lock when next scheduled. If shedding the donations leaves the
// releasing thread outranked by a ready thread, it yields before
// Release returns.
func (l *Lock) Release() {
	sys := l.sema.sys
	t := sys.cur
	if t == nil || l.holder != t {
		panic("lock: not holder")
	}
	old := sys.IntrDisable()
	l.release()
	sys.checkPreempt()
	sys.IntrRestore(old)
	sys.maybeYield()
}

// release is Release without the holder check and preemption point.
func (l *Lock) release() {
	t := l.holder
	t.unhold(l)
	t.dropDonations(l)
	l.holder = nil
	l.sema.up()
}

/*
 * Donation. The calling thread has set waitingFor to the held lock
 * it is about to block on. Record a donation of its effective
 * priority with the lock's holder, then walk the chain: while the
 * recipient is itself blocked on some lock, raise its own standing
 * donation to that lock's holder up to the same amount. A thread
 * blocks on at most one lock at a time, so the donor->recipient
 * relation is a forest of chains and the walk terminates.
 */
func (t *Thread) donate() {
	l := t.waitingFor
	amount := t.Priority()
	l.holder.addDonation(donation{amount: amount, donor: t, lock: l})
	for r := l.holder; r.waitingFor != nil; {
		next := r.waitingFor.holder
		if next == nil || !next.raiseDonation(r, r.waitingFor, amount) {
			break
		}
		r = next
	}
}

// A Cond is a condition variable, used with an external Lock.
// Waiters sit on the condition's queue directly rather than behind
// per-wait wrapper records, so a Signal picks by the waiter's
// effective priority at signal time, donations included.
type Cond struct {
	sys     *System
	waiters Queue
}

// NewCond returns a condition variable with no waiters.
func NewCond(sys *System) *Cond {
	return &Cond{sys: sys}
}

// Wait atomically releases l and blocks until a Signal or Broadcast
// on c, then reacquires l before returning. The caller must hold l.
func (c *Cond) Wait(l *Lock) {
	sys := c.sys
	t := sys.cur
	if t == nil || l.holder != t {
		panic("cond: not holder")
	}
	old := sys.IntrDisable()
	c.waiters.Insert(t)
	l.release()
	t.Block()
	sys.IntrRestore(old)
	l.Acquire()
}

// Signal readies the highest-priority waiter on c, if any.
// The caller must hold l, the lock paired with c.
func (c *Cond) Signal(l *Lock) {
	sys := c.sys
	if sys.cur == nil || l.holder != sys.cur {
		panic("cond: not holder")
	}
	old := sys.IntrDisable()
	if w := c.waiters.PopMax(); w != nil {
		sys.setrun(w)
	}
	sys.IntrRestore(old)
	sys.maybeYield()
}

// Broadcast readies every waiter on c, highest priority first.
// The caller must hold l, the lock paired with c.
func (c *Cond) Broadcast(l *Lock) {
	sys := c.sys
	if sys.cur == nil || l.holder != sys.cur {
		panic("cond: not holder")
	}
	old := sys.IntrDisable()
	for {
		w := c.waiters.PopMax()
		if w == nil {
			break
		}
		sys.setrun(w)
	}
	sys.IntrRestore(old)
	sys.maybeYield()
}
