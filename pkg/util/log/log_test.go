// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	defer SetOutput(&buf)()

	ctx := logtags.AddTag(context.Background(), "op", "join")
	Warningf(ctx, "dropped %d rows from %s", 3, "left")

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "W"), out)
	require.Contains(t, out, "log_test.go:")
	require.Contains(t, out, "[op=join]")
	require.True(t, strings.HasSuffix(out, "dropped 3 rows from left\n"), out)
}

func TestLogRedactable(t *testing.T) {
	var buf bytes.Buffer
	defer SetOutput(&buf)()
	defer SetRedactable(false)

	SetRedactable(true)
	Infof(context.Background(), "path %s, count %d", "secret.csv", redact.Safe(7))
	require.Contains(t, buf.String(), "path ‹secret.csv›, count 7")

	buf.Reset()
	SetRedactable(false)
	Infof(context.Background(), "path %s", "secret.csv")
	require.Contains(t, buf.String(), "path secret.csv")
}

func TestVEventf(t *testing.T) {
	var buf bytes.Buffer
	defer SetOutput(&buf)()
	defer SetVerbosity(0)()

	VEventf(context.Background(), 2, "hidden")
	require.Empty(t, buf.String())

	SetVerbosity(2)
	require.True(t, V(2))
	VEventf(context.Background(), 2, "shown")
	require.Contains(t, buf.String(), "shown")
}

func TestEveryN(t *testing.T) {
	defer SetVerbosity(0)()
	e := Every(time.Minute)
	start := time.Now()
	require.True(t, e.shouldLog(start))
	require.False(t, e.shouldLog(start.Add(time.Second)))
	require.True(t, e.shouldLog(start.Add(2*time.Minute)))
}
