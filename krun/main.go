// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Krun runs a scheduler scenario file and prints its event log.
//
// Usage:
//
//	krun [-trace] [-step] [-v] scenario.hcl
//
// With -step, krun puts the terminal in raw mode and executes one
// scenario step per keypress, which makes donation chains easy to
// watch one dispatch at a time alongside -trace.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime/pprof"

	"golang.org/x/term"
	"rsc.io/ksched/scenario"
)

var (
	trace      = flag.Bool("trace", false, "trace every dispatch")
	step       = flag.Bool("step", false, "single-step scenario actions on keypress")
	verbose    = flag.Bool("v", false, "log every step as it executes")
	cpuprofile = flag.String("cpuprofile", "", "write cpuprofile to `file`")
)

func main() {
	log.SetPrefix("krun: ")
	log.SetFlags(0)
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: krun [-trace] [-step] [-v] scenario.hcl")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	sc, err := scenario.LoadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	sc.Trace = *trace

	fixup := func() {}
	if *step {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			log.Fatal(err)
		}
		fixup = func() { term.Restore(int(os.Stdin.Fd()), oldState) }
		defer fixup()

		sc.Step = func() {
			var buf [1]byte
			if _, err := os.Stdin.Read(buf[:]); err != nil || buf[0] == 0x03 || buf[0] == 'q' {
				pprof.StopCPUProfile()
				fixup()
				os.Exit(0)
			}
		}
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	events, err := sc.Run(logger)
	fixup()
	for _, e := range events {
		fmt.Println(e)
	}
	if err != nil {
		log.Fatal(err)
	}
}
