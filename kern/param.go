// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

/*
 * tunable variables
 */
const (
	NTHREAD   = 64 /* max number of threads */
	TimeSlice = 4  /* ticks a thread may run before the quantum expires */
)

/*
 * priorities
 * higher number runs first
 */
const (
	PriMin     = 0  /* lowest priority */
	PriDefault = 31 /* default priority at creation */
	PriMax     = 63 /* highest priority */
)

const (
	/* status codes */
	_SRUN  int8 = 1 /* running */
	_SRDY  int8 = 2 /* on the ready queue */
	_SWAIT int8 = 3 /* blocked on a primitive or custom wait structure */
	_SZOMB int8 = 4 /* dead, awaiting reclamation at the next dispatch */
)
