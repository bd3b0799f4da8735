// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colexecerror defines the error kinds produced by the execution
// engine and the helpers that convert worker panics into errors.
package colexecerror

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/colquery/pkg/util/buildutil"
	"github.com/cockroachdb/errors"
)

// Sentinels used to mark user-facing errors. They are attached with
// errors.Mark and detected with errors.Is, so the message of the marked error
// is unaffected.
var (
	// ErrTypeMismatch marks an error caused by a value of an unexpected type,
	// such as a filter predicate that is not boolean.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrSchema marks an error caused by a referenced column that does not
	// exist, or by a duplicate column name.
	ErrSchema = errors.New("schema error")
	// ErrIO marks an error returned while reading a source.
	ErrIO = errors.New("i/o error")
	// ErrParse marks an error returned while decoding source values.
	ErrParse = errors.New("parse error")
)

// NewInternalErrorf returns an internal-consistency error. Such errors
// signal a defect in the engine rather than a problem with the query. In
// test builds the error is raised as a panic right away so that the defect
// is reported at its origin.
func NewInternalErrorf(format string, args ...interface{}) error {
	err := errors.AssertionFailedWithDepthf(1, format, args...)
	if buildutil.CrdbTestBuild {
		panic(err)
	}
	return err
}

// InternalError marks err as an internal-consistency error, keeping its
// message. Like NewInternalErrorf it panics in test builds.
func InternalError(err error) error {
	if err == nil {
		return nil
	}
	if !IsInternal(err) {
		err = errors.NewAssertionErrorWithWrappedErrf(err, "internal error")
	}
	if buildutil.CrdbTestBuild {
		panic(err)
	}
	return err
}

// IsInternal returns whether err is an internal-consistency error.
func IsInternal(err error) bool {
	return errors.HasAssertionFailure(err)
}

// Kind returns a short name for the kind of err, for logging and tests.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsInternal(err):
		return "internal"
	case errors.Is(err, ErrTypeMismatch):
		return "type mismatch"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "error"
	}
}

// WrapIO marks err as an I/O error with the given context.
func WrapIO(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrIO)
}

// WrapParse marks err as a parse error with the given context.
func WrapParse(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrParse)
}

// CatchVectorizedRuntimeError executes operation, catches a runtime error if
// it is coming from a worker and returns it. Panics carrying an error keep
// their error (and its kind); runtime errors such as an out of bounds index
// and panics with non-error payloads are converted to internal errors.
func CatchVectorizedRuntimeError(operation func()) (retErr error) {
	defer func() {
		panicObj := recover()
		if panicObj == nil {
			return
		}
		switch e := panicObj.(type) {
		case runtime.Error:
			retErr = errors.NewAssertionErrorWithWrappedErrf(e, "unexpected runtime error")
		case error:
			retErr = e
		default:
			retErr = errors.AssertionFailedf("unexpected panic: %s", fmt.Sprint(e))
		}
	}()
	operation()
	return retErr
}
