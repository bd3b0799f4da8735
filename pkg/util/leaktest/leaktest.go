// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package leaktest provides tools to detect leaked goroutines in tests. To
// use it, add the following line at the beginning of a test:
//
//	defer leaktest.AfterTest(t)()
package leaktest

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// TB is the subset of testing.TB used here.
type TB interface {
	Errorf(format string, args ...interface{})
	Failed() bool
	Helper()
}

// ignoredFrames lists substrings of goroutine stacks that are never reported.
// The worker pool keeps background goroutines that outlive a single test.
var ignoredFrames = []string{
	"testing.RunTests",
	"testing.Main(",
	"testing.(*T).Run(",
	"testing.(*T).Parallel",
	"testing.tRunner(",
	"runtime.goexit",
	"created by runtime.gc",
	"interestingGoroutines",
	"runtime.MHeap_Scavenger",
	"signal.signal_recv",
	"sigterm.handler",
	"runtime_mcall",
	"goroutine in C code",
	"os/signal.loop",
	"github.com/panjf2000/ants",
}

// interestingGoroutines returns all goroutines we care about for the purpose
// of leak checking, keyed by goroutine id.
func interestingGoroutines() map[int64]string {
	buf := make([]byte, 2<<20)
	buf = buf[:runtime.Stack(buf, true)]
	gs := make(map[int64]string)
	for _, g := range strings.Split(string(buf), "\n\n") {
		sl := strings.SplitN(g, "\n", 2)
		if len(sl) != 2 {
			continue
		}
		stack := strings.TrimSpace(sl[1])
		if stack == "" || slices.ContainsFunc(ignoredFrames, func(f string) bool {
			return strings.Contains(stack, f)
		}) {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(sl[0], "goroutine %d ", &id); err != nil {
			continue
		}
		gs[id] = g
	}
	return gs
}

// AfterTest snapshots the currently-running goroutines and returns a
// function to be run at the end of tests to see whether any goroutines
// leaked.
func AfterTest(t TB) func() {
	orig := interestingGoroutines()
	return func() {
		t.Helper()
		// If there was a panic, "leaked" goroutines are expected.
		if r := recover(); r != nil {
			panic(r)
		}
		if t.Failed() {
			return
		}
		if err := diffGoroutines(orig, 5*time.Second); err != nil {
			t.Errorf("%v", err)
		}
	}
}

// diffGoroutines waits up to timeout for the goroutines that are not in orig
// to exit.
func diffGoroutines(orig map[int64]string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var leaked []string
		for id, stack := range interestingGoroutines() {
			if _, ok := orig[id]; !ok {
				leaked = append(leaked, stack)
			}
		}
		if len(leaked) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			slices.Sort(leaked)
			return errors.Newf("leaked goroutines:\n%s", strings.Join(leaked, "\n\n"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
