// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scenario loads and executes declarative scheduler
// workloads: HCL files naming locks, semaphores, and condition
// variables, and threads as a priority plus a list of steps.
//
//	lock "a" {}
//
//	thread "low" {
//		priority = 10
//		step "acquire" { lock = "a" }
//		step "report" {}
//		step "release" { lock = "a" }
//	}
//
// Running a scenario yields an event log, one line per completed
// step, which is what scenario tests assert against.
package scenario

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// A Scenario is a parsed workload, ready to run.
type Scenario struct {
	Trace bool   // trace dispatches to stderr
	Step  func() // if set, called before each step executes

	locks   []string
	semas   []semaDef
	conds   []string
	threads []threadDef
}

type semaDef struct {
	name  string
	count int
}

type threadDef struct {
	name     string
	priority int
	deferred bool // created by a spawn step, not at startup
	steps    []step
}

// A step is one decoded thread action.
type step struct {
	op       string
	lock     string
	sema     string
	cond     string
	thread   string
	priority int
	hasPri   bool
	count    int
}

type fileHCL struct {
	Locks   []*lockHCL   `hcl:"lock,block"`
	Semas   []*semaHCL   `hcl:"sema,block"`
	Conds   []*condHCL   `hcl:"cond,block"`
	Threads []*threadHCL `hcl:"thread,block"`
}

type lockHCL struct {
	Name string `hcl:"name,label"`
}

type semaHCL struct {
	Name  string `hcl:"name,label"`
	Count int    `hcl:"count,optional"`
}

type condHCL struct {
	Name string `hcl:"name,label"`
}

type threadHCL struct {
	Name     string     `hcl:"name,label"`
	Priority int        `hcl:"priority"`
	Deferred bool       `hcl:"deferred,optional"`
	Steps    []*stepHCL `hcl:"step,block"`
}

type stepHCL struct {
	Op   string   `hcl:"op,label"`
	Body hcl.Body `hcl:",remain"`
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(src, path)
}

// Load parses src as a scenario. The filename appears in diagnostics.
func Load(src []byte, filename string) (*Scenario, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}
	var f fileHCL
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", filename, diags)
	}

	sc := new(Scenario)
	for _, l := range f.Locks {
		sc.locks = append(sc.locks, l.Name)
	}
	for _, s := range f.Semas {
		if s.Count < 0 {
			return nil, fmt.Errorf("%s: sema %q: negative count", filename, s.Name)
		}
		sc.semas = append(sc.semas, semaDef{name: s.Name, count: s.Count})
	}
	for _, c := range f.Conds {
		sc.conds = append(sc.conds, c.Name)
	}
	for _, th := range f.Threads {
		td := threadDef{name: th.Name, priority: th.Priority, deferred: th.Deferred}
		for _, sh := range th.Steps {
			st, err := decodeStep(sh)
			if err != nil {
				return nil, fmt.Errorf("%s: thread %q: %w", filename, th.Name, err)
			}
			td.steps = append(td.steps, st)
		}
		sc.threads = append(sc.threads, td)
	}
	if err := sc.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sc, nil
}

// decodeStep evaluates a step block's arguments into a step.
func decodeStep(sh *stepHCL) (step, error) {
	st := step{op: sh.Op, count: 1}
	attrs, diags := sh.Body.JustAttributes()
	if diags.HasErrors() {
		return st, fmt.Errorf("step %q: %w", sh.Op, diags)
	}
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return st, fmt.Errorf("step %q: argument %q: %w", sh.Op, name, diags)
		}
		var err error
		switch name {
		case "lock":
			err = argString(v, &st.lock)
		case "sema":
			err = argString(v, &st.sema)
		case "cond":
			err = argString(v, &st.cond)
		case "thread":
			err = argString(v, &st.thread)
		case "priority":
			st.hasPri = true
			err = gocty.FromCtyValue(v, &st.priority)
		case "count":
			err = gocty.FromCtyValue(v, &st.count)
		default:
			return st, fmt.Errorf("step %q: unknown argument %q", sh.Op, name)
		}
		if err != nil {
			return st, fmt.Errorf("step %q: argument %q: %w", sh.Op, name, err)
		}
	}
	return st, st.checkArgs()
}

func argString(v cty.Value, dst *string) error {
	if v.Type() != cty.String {
		return fmt.Errorf("want string, have %s", v.Type().FriendlyName())
	}
	return gocty.FromCtyValue(v, dst)
}

// checkArgs verifies that the step names every argument its op needs.
func (st *step) checkArgs() error {
	need := func(have *string, what string) error {
		if *have == "" {
			return fmt.Errorf("step %q: missing %s", st.op, what)
		}
		return nil
	}
	switch st.op {
	case "acquire", "release", "try_acquire":
		return need(&st.lock, "lock")
	case "down", "up", "try_down":
		return need(&st.sema, "sema")
	case "wait", "signal", "broadcast":
		if err := need(&st.cond, "cond"); err != nil {
			return err
		}
		return need(&st.lock, "lock")
	case "spawn":
		return need(&st.thread, "thread")
	case "set_priority":
		if !st.hasPri {
			return fmt.Errorf("step %q: missing priority", st.op)
		}
		return nil
	case "yield", "report", "tick":
		return nil
	}
	return fmt.Errorf("unknown op %q", st.op)
}

// check verifies cross-references after the whole file is decoded.
func (sc *Scenario) check() error {
	locks := map[string]bool{}
	for _, n := range sc.locks {
		if locks[n] {
			return fmt.Errorf("duplicate lock %q", n)
		}
		locks[n] = true
	}
	semas := map[string]bool{}
	for _, s := range sc.semas {
		if semas[s.name] {
			return fmt.Errorf("duplicate sema %q", s.name)
		}
		semas[s.name] = true
	}
	conds := map[string]bool{}
	for _, n := range sc.conds {
		if conds[n] {
			return fmt.Errorf("duplicate cond %q", n)
		}
		conds[n] = true
	}
	threads := map[string]*threadDef{}
	for i := range sc.threads {
		td := &sc.threads[i]
		if threads[td.name] != nil {
			return fmt.Errorf("duplicate thread %q", td.name)
		}
		threads[td.name] = td
	}

	for _, td := range sc.threads {
		for _, st := range td.steps {
			if st.lock != "" && !locks[st.lock] {
				return fmt.Errorf("thread %q: step %q: no lock %q", td.name, st.op, st.lock)
			}
			if st.sema != "" && !semas[st.sema] {
				return fmt.Errorf("thread %q: step %q: no sema %q", td.name, st.op, st.sema)
			}
			if st.cond != "" && !conds[st.cond] {
				return fmt.Errorf("thread %q: step %q: no cond %q", td.name, st.op, st.cond)
			}
			if st.op == "spawn" {
				target := threads[st.thread]
				if target == nil {
					return fmt.Errorf("thread %q: spawn: no thread %q", td.name, st.thread)
				}
				if !target.deferred {
					return fmt.Errorf("thread %q: spawn %q: target must be deferred", td.name, st.thread)
				}
			}
		}
	}
	return nil
}

// threadDefByName returns the definition of the named thread.
func (sc *Scenario) threadDefByName(name string) *threadDef {
	for i := range sc.threads {
		if sc.threads[i].name == name {
			return &sc.threads[i]
		}
	}
	return nil
}
