// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log implements the leveled logging used by the execution engine.
//
// Every entry carries the severity, a timestamp, the caller position and the
// log tags found in the context (see logtags.AddTag). Arguments are rendered
// through the redact package, so values are enclosed in redaction markers
// when SetRedactable(true) has been called.
//
// Verbose logging is controlled by a single global level, initialized from
// the COLQ_LOG_VERBOSITY environment variable and adjustable with
// SetVerbosity.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/colquery/pkg/util/envutil"
	"github.com/cockroachdb/colquery/pkg/util/syncutil"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// Severity identifies the importance of a log entry.
type Severity int32

const (
	// SeverityInfo is used for informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning is used for unexpected conditions that are handled.
	SeverityWarning
	// SeverityError is used for errors that are returned to the caller.
	SeverityError
)

func (s Severity) char() byte {
	switch s {
	case SeverityWarning:
		return 'W'
	case SeverityError:
		return 'E'
	default:
		return 'I'
	}
}

type loggerT struct {
	verbosity  atomic.Int32
	redactable atomic.Bool
	mu         struct {
		syncutil.Mutex
		w io.Writer
	}
}

var logging = func() *loggerT {
	l := &loggerT{}
	l.mu.w = os.Stderr
	l.verbosity.Store(int32(envutil.EnvOrDefaultInt("COLQ_LOG_VERBOSITY", 0)))
	return l
}()

// SetOutput redirects all log entries to w. It returns a function that
// restores the previous output.
func SetOutput(w io.Writer) (restore func()) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	prev := logging.mu.w
	logging.mu.w = w
	return func() {
		logging.mu.Lock()
		defer logging.mu.Unlock()
		logging.mu.w = prev
	}
}

// SetVerbosity sets the global verbosity level and returns a function that
// restores the previous one.
func SetVerbosity(level int32) (restore func()) {
	prev := logging.verbosity.Swap(level)
	return func() { logging.verbosity.Store(prev) }
}

// SetRedactable controls whether log arguments are enclosed in redaction
// markers.
func SetRedactable(b bool) {
	logging.redactable.Store(b)
}

// V returns true if the verbosity is at least level.
func V(level int32) bool {
	return logging.verbosity.Load() >= level
}

// Infof logs to the INFO severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, SeverityInfo, format, args)
}

// Warningf logs to the WARNING severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, SeverityWarning, format, args)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, SeverityError, format, args)
}

// InfofDepth logs to the INFO severity, attributing the entry to the caller
// depth frames up the stack.
func InfofDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	logDepth(ctx, depth+1, SeverityInfo, format, args)
}

// VEventf logs to the INFO severity if the verbosity is at least level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		logDepth(ctx, 1, SeverityInfo, format, args)
	}
}

func logDepth(ctx context.Context, depth int, sev Severity, format string, args []interface{}) {
	entry := formatEntry(ctx, depth+1, sev, time.Now(), format, args)
	logging.mu.Lock()
	defer logging.mu.Unlock()
	_, _ = io.WriteString(logging.mu.w, entry)
}

// formatEntry renders an entry in the format
//
//	I241019 12:00:00.000000 file.go:123  [tag1,tag2=v] message
func formatEntry(
	ctx context.Context, depth int, sev Severity, now time.Time, format string, args []interface{},
) string {
	var b strings.Builder
	b.WriteByte(sev.char())
	b.WriteString(now.UTC().Format("060102 15:04:05.000000"))
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		file, line = "???", 1
	}
	fmt.Fprintf(&b, " %s:%d ", filepath.Base(file), line)
	if tags := logtags.FromContext(ctx); tags != nil {
		b.WriteString(" [")
		b.WriteString(tags.String())
		b.WriteString("]")
	}
	b.WriteByte(' ')
	msg := redact.Sprintf(format, args...)
	if logging.redactable.Load() {
		b.WriteString(string(msg))
	} else {
		b.WriteString(msg.StripMarkers())
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}
