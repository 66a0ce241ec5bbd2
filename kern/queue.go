// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

/*
 * Wait queue ordered by effective priority, highest first,
 * FIFO among equal priorities. The ready queue, semaphore
 * waiters, and condition waiters are all Queues.
 *
 * Effective priority can rise after insertion (donation) or change
 * under an explicit priority set, so PopMax and PeekMax re-derive
 * the maximum at call time rather than trusting insertion order.
 * Entries carry the enqueue sequence number so that the FIFO
 * tie-break survives any amount of reordering.
 */

// A Queue holds threads ordered by descending effective priority.
// A thread is on at most one Queue at a time.
type Queue struct {
	q    []*Thread
	nseq uint64
}

// Insert adds t to the queue, after any entries whose effective
// priority is greater than or equal to t's.
func (q *Queue) Insert(t *Thread) {
	if t.inq != nil {
		panic("queue: thread on two queues")
	}
	t.inq = q
	q.nseq++
	t.qseq = q.nseq
	i := 0
	for i < len(q.q) && q.q[i].Priority() >= t.Priority() {
		i++
	}
	q.q = append(q.q, nil)
	copy(q.q[i+1:], q.q[i:])
	q.q[i] = t
}

// PopMax removes and returns the thread with the greatest effective
// priority, earliest-enqueued among equals, or nil if the queue is
// empty. The maximum is recomputed here so that donations received
// while a thread was waiting are honored at the instant of waking.
func (q *Queue) PopMax() *Thread {
	best := -1
	for i, t := range q.q {
		if best < 0 || q.before(t, q.q[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	t := q.q[best]
	q.q = append(q.q[:best], q.q[best+1:]...)
	t.inq = nil
	return t
}

// PeekMax returns the thread PopMax would return, without removing it.
func (q *Queue) PeekMax() *Thread {
	var max *Thread
	for _, t := range q.q {
		if max == nil || q.before(t, max) {
			max = t
		}
	}
	return max
}

// Remove deletes t from the queue, reporting whether it was present.
// Used to excise a waiter early, before it reaches the front.
func (q *Queue) Remove(t *Thread) bool {
	for i, u := range q.q {
		if u == t {
			q.q = append(q.q[:i], q.q[i+1:]...)
			t.inq = nil
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	return len(q.q)
}

func (q *Queue) Empty() bool {
	return len(q.q) == 0
}

// before reports whether a should be dequeued ahead of b.
func (q *Queue) before(a, b *Thread) bool {
	if a.Priority() != b.Priority() {
		return a.Priority() > b.Priority()
	}
	return a.qseq < b.qseq
}
