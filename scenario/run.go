// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenario

import (
	"fmt"
	"io"
	"log/slog"

	"rsc.io/ksched/kern"
)

// A runner holds one execution of a scenario: a fresh kernel plus the
// named primitives and threads the scenario declared.
type runner struct {
	sc      *Scenario
	sys     *kern.System
	logger  *slog.Logger
	locks   map[string]*kern.Lock
	semas   map[string]*kern.Sema
	conds   map[string]*kern.Cond
	threads map[string]*kern.Thread
	events  []string
	err     error
}

// Run executes the scenario on a fresh kernel and returns the event
// log, one line per completed step. Threads still blocked when the
// system goes idle are reported as an error: the scenario deadlocked
// or forgot a wakeup.
func (sc *Scenario) Run(logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &runner{
		sc:      sc,
		sys:     kern.NewSystem(),
		logger:  logger,
		locks:   map[string]*kern.Lock{},
		semas:   map[string]*kern.Sema{},
		conds:   map[string]*kern.Cond{},
		threads: map[string]*kern.Thread{},
	}
	r.sys.Trace = sc.Trace
	for _, name := range sc.locks {
		r.locks[name] = kern.NewLock(r.sys)
	}
	for _, sd := range sc.semas {
		r.semas[sd.name] = kern.NewSema(r.sys, sd.count)
	}
	for _, name := range sc.conds {
		r.conds[name] = kern.NewCond(r.sys)
	}
	for i := range sc.threads {
		td := &sc.threads[i]
		if td.deferred {
			continue
		}
		if err := r.spawn(td); err != nil {
			return nil, err
		}
	}

	r.sys.Run()

	for name, t := range r.threads {
		if s := t.State(); s != kern.Dying {
			r.logger.Warn("thread stuck", "thread", name, "state", s.String())
			if r.err == nil {
				r.err = fmt.Errorf("thread %q still %v at idle", name, s)
			}
		}
	}
	return r.events, r.err
}

func (r *runner) spawn(td *threadDef) error {
	t, err := r.sys.Create(td.name, td.priority, r.body(td))
	if err != nil {
		return fmt.Errorf("thread %q: %w", td.name, err)
	}
	r.threads[td.name] = t
	return nil
}

func (r *runner) body(td *threadDef) func(*kern.Thread) {
	return func(t *kern.Thread) {
		for i := range td.steps {
			r.exec(t, &td.steps[i])
		}
	}
}

// exec runs one step in the context of thread t and appends its event
// line once the step completes. A step that blocks (acquire of a held
// lock, down of a zero semaphore, wait) logs only after it resumes,
// so the event order is the order in which steps finished.
func (r *runner) exec(t *kern.Thread, st *step) {
	if r.sc.Step != nil {
		r.sc.Step()
	}
	r.logger.Debug("step", "thread", t.Name, "op", st.op)
	switch st.op {
	case "acquire":
		r.locks[st.lock].Acquire()
		r.event("%s acquire %s", t.Name, st.lock)
	case "try_acquire":
		ok := r.locks[st.lock].TryAcquire()
		r.event("%s try_acquire %s ok=%v", t.Name, st.lock, ok)
	case "release":
		r.locks[st.lock].Release()
		r.event("%s release %s", t.Name, st.lock)
	case "down":
		r.semas[st.sema].Down()
		r.event("%s down %s", t.Name, st.sema)
	case "try_down":
		ok := r.semas[st.sema].TryDown()
		r.event("%s try_down %s ok=%v", t.Name, st.sema, ok)
	case "up":
		r.semas[st.sema].Up()
		r.event("%s up %s", t.Name, st.sema)
	case "wait":
		r.conds[st.cond].Wait(r.locks[st.lock])
		r.event("%s wait %s", t.Name, st.cond)
	case "signal":
		r.conds[st.cond].Signal(r.locks[st.lock])
		r.event("%s signal %s", t.Name, st.cond)
	case "broadcast":
		r.conds[st.cond].Broadcast(r.locks[st.lock])
		r.event("%s broadcast %s", t.Name, st.cond)
	case "yield":
		t.Yield()
		r.event("%s yield", t.Name)
	case "set_priority":
		t.SetPriority(st.priority)
		r.event("%s set_priority %d", t.Name, st.priority)
	case "tick":
		for i := 0; i < st.count; i++ {
			r.sys.Tick()
		}
		r.event("%s tick %d", t.Name, st.count)
	case "report":
		r.event("%s report pri=%d", t.Name, t.Priority())
	case "spawn":
		if err := r.spawn(r.sc.threadDefByName(st.thread)); err != nil {
			if r.err == nil {
				r.err = err
			}
			return
		}
		r.event("%s spawn %s", t.Name, st.thread)
	}
}

func (r *runner) event(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}
