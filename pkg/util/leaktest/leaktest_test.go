// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package leaktest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mockT struct {
	errs []string
}

func (m *mockT) Errorf(format string, args ...interface{}) {
	m.errs = append(m.errs, format)
}
func (m *mockT) Failed() bool { return len(m.errs) > 0 }
func (m *mockT) Helper()      {}

func TestCheck(t *testing.T) {
	orig := interestingGoroutines()
	stop := make(chan struct{})
	go func() { <-stop }()
	require.Error(t, diffGoroutines(orig, 10*time.Millisecond))
	close(stop)
	require.NoError(t, diffGoroutines(orig, 5*time.Second))
}

func TestAfterTestNoLeak(t *testing.T) {
	m := &mockT{}
	done := make(chan struct{})
	func() {
		defer AfterTest(m)()
		go func() { close(done) }()
		<-done
	}()
	require.Empty(t, m.errs)
}
