// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kern implements a preemptible priority scheduler for a
// simulated uniprocessor kernel: threads, a ready queue ordered by
// effective priority, and the semaphore, lock, and condition-variable
// primitives, with priority donation through chains of blocked lock
// holders.
//
// Every thread runs on its own goroutine, but a single run token is
// handed between them, so exactly one thread executes at a time and
// kernel state needs no locking of its own. The caller of Run plays
// the role of the idle thread.
package kern
