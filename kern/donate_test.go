// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import (
	"fmt"
	"testing"
)

func TestDonationRaisesAndRetracts(t *testing.T) {
	sys := NewSystem()
	l := NewLock(sys)
	var order []string
	sys.Create("low", 10, func(low *Thread) {
		l.Acquire()
		sys.Create("high", 60, func(high *Thread) {
			order = append(order, "high running")
			l.Acquire()
			order = append(order, "high acquired")
			if pri := high.Priority(); pri != 60 {
				t.Errorf("holder after handoff: have pri %d, want 60", pri)
			}
			l.Release()
		})
		// high is blocked on l; its priority flowed to us
		p1 := low.Priority()
		p2 := low.Priority()
		if p1 != p2 {
			t.Errorf("Priority not idempotent: %d then %d", p1, p2)
		}
		if p1 != 60 {
			t.Errorf("donated priority: have %d, want 60", p1)
		}
		if base := low.BasePriority(); base != 10 {
			t.Errorf("base priority under donation: have %d, want 10", base)
		}
		l.Release()
		// donation retracted with the lock, and high preempted us
		if pri := low.Priority(); pri != 10 {
			t.Errorf("priority after release: have %d, want 10", pri)
		}
		order = append(order, "low done")
	})
	sys.Run()

	want := []string{"high running", "high acquired", "low done"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("run order: have %v, want %v", order, want)
	}
}

func TestDonationChain(t *testing.T) {
	sys := NewSystem()
	la := NewLock(sys)
	lb := NewLock(sys)
	effs := map[string]int{}
	var order []string

	sys.Create("low", 10, func(low *Thread) {
		la.Acquire()
		mid, _ := sys.Create("mid", 30, func(mid *Thread) {
			lb.Acquire()
			la.Acquire()
			order = append(order, "mid locked a")
			effs["mid holding a"] = mid.Priority()
			lb.Release()
			effs["mid after b"] = mid.Priority()
			la.Release()
			order = append(order, "mid done")
		})
		sys.Create("high", 60, func(high *Thread) {
			lb.Acquire()
			order = append(order, "high locked b")
			effs["high"] = high.Priority()
			lb.Release()
			order = append(order, "high done")
		})
		// chain: high -> lb -> mid -> la -> low
		effs["low donated"] = low.Priority()
		effs["mid donated"] = mid.Priority()
		if s := mid.State(); s != Blocked {
			t.Errorf("mid state: have %v, want %v", s, Blocked)
		}
		la.Release()
		effs["low after"] = low.Priority()
		order = append(order, "low done")
	})
	sys.Run()

	want := map[string]int{
		"low donated":   60,
		"mid donated":   60,
		"mid holding a": 60,
		"mid after b":   30,
		"high":          60,
		"low after":     10,
	}
	for k, w := range want {
		if effs[k] != w {
			t.Errorf("%s: have %d, want %d", k, effs[k], w)
		}
	}
	wantOrder := []string{
		"mid locked a", "high locked b", "high done",
		"mid done", "low done",
	}
	if fmt.Sprint(order) != fmt.Sprint(wantOrder) {
		t.Errorf("run order: have %v, want %v", order, wantOrder)
	}
}

func TestSelectiveRetraction(t *testing.T) {
	sys := NewSystem()
	la := NewLock(sys)
	lb := NewLock(sys)
	effs := map[string]int{}
	var order []string

	sys.Create("holder", 10, func(h *Thread) {
		la.Acquire()
		lb.Acquire()
		sys.Create("d1", 40, func(*Thread) {
			la.Acquire()
			order = append(order, "d1")
			la.Release()
		})
		sys.Create("d2", 50, func(*Thread) {
			lb.Acquire()
			order = append(order, "d2")
			lb.Release()
		})
		effs["both"] = h.Priority()
		la.Release()
		// only d1's donation went away; d2's, tied to lb, remains
		effs["after a"] = h.Priority()
		lb.Release()
		effs["after b"] = h.Priority()
	})
	sys.Run()

	want := map[string]int{"both": 50, "after a": 50, "after b": 10}
	for k, w := range want {
		if effs[k] != w {
			t.Errorf("%s: have %d, want %d", k, effs[k], w)
		}
	}
	// d2 outranks d1 and runs first once lb is free
	wantOrder := []string{"d2", "d1"}
	if fmt.Sprint(order) != fmt.Sprint(wantOrder) {
		t.Errorf("run order: have %v, want %v", order, wantOrder)
	}
}

func TestBaseChangeUnderDonation(t *testing.T) {
	sys := NewSystem()
	l := NewLock(sys)
	sys.Create("low", 30, func(low *Thread) {
		l.Acquire()
		sys.Create("high", 60, func(*Thread) {
			l.Acquire()
			l.Release()
		})
		low.SetPriority(5)
		if pri := low.Priority(); pri != 60 {
			t.Errorf("lowering base under donation: have %d, want 60", pri)
		}
		low.SetPriority(PriMax)
		if pri := low.Priority(); pri != PriMax {
			t.Errorf("base above donation: have %d, want %d", pri, PriMax)
		}
		low.SetPriority(5)
		l.Release()
		if pri := low.Priority(); pri != 5 {
			t.Errorf("after release: have %d, want 5", pri)
		}
	})
	sys.Run()
}

func TestDonationToReadyHolder(t *testing.T) {
	// the holder is ready, not blocked: a donation must move its
	// ready-queue standing by the next dispatch
	sys := NewSystem()
	l := NewLock(sys)
	var order []string
	sys.Create("low", 10, func(*Thread) {
		l.Acquire()
		order = append(order, "low acquired")
		sys.Create("mid", 20, func(*Thread) {
			order = append(order, "mid start")
			sys.Create("high", 30, func(*Thread) {
				l.Acquire()
				order = append(order, "high acquired")
				l.Release()
			})
			order = append(order, "mid end")
		})
		// mid preempted us after the acquire; the donation from
		// high moved us ahead of mid while we sat in the ready
		// queue, so we resume before mid finishes
		order = append(order, "low resumed")
		l.Release()
	})
	sys.Run()

	want := []string{
		"low acquired", "mid start",
		"low resumed", "high acquired", "mid end",
	}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("run order: have %v, want %v", order, want)
	}
}
