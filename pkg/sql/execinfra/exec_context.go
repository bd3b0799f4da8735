// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package execinfra contains the state shared by the operators of one query
// evaluation.
package execinfra

import (
	"context"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/util/log"
	"github.com/cockroachdb/colquery/pkg/util/parallel"
	"github.com/cockroachdb/colquery/pkg/util/syncutil"
)

// ExecutionContext is created once per query evaluation and passed to every
// operator. The result cache and the expression cache are shared by all
// forks of a context; the row-limit override belongs to a single fork.
type ExecutionContext struct {
	Config  Config
	Pool    *parallel.Pool
	Metrics *Metrics

	caches *caches
	// fetchRows, if positive, replaces the row limit of every scan.
	fetchRows int
}

type caches struct {
	results syncutil.Map[string, *coldata.Table]
	exprs   syncutil.Map[string, *coldata.Vec]
}

// NewExecutionContext returns a context with empty caches. metrics may be
// nil, in which case unregistered counters are used.
func NewExecutionContext(cfg Config, pool *parallel.Pool, metrics *Metrics) *ExecutionContext {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &ExecutionContext{
		Config:  cfg,
		Pool:    pool,
		Metrics: metrics,
		caches:  &caches{},
	}
}

// Fork returns a context sharing the caches, pool and metrics of ec. The
// row-limit override is copied. Work handed to another goroutine must use a
// fork rather than ec itself.
func (ec *ExecutionContext) Fork() *ExecutionContext {
	res := *ec
	return &res
}

// WithFetchRows returns a fork in which every scan reads at most n rows,
// regardless of its own limit. A non-positive n removes the override.
func (ec *ExecutionContext) WithFetchRows(n int) *ExecutionContext {
	res := ec.Fork()
	res.fetchRows = max(n, 0)
	return res
}

// FetchRows returns the row-limit override and whether it is set.
func (ec *ExecutionContext) FetchRows() (int, bool) {
	return ec.fetchRows, ec.fetchRows > 0
}

// EffectiveRowLimit returns the limit a scan must apply: the override if one
// is set and requested otherwise. Zero means no limit.
func (ec *ExecutionContext) EffectiveRowLimit(requested int) int {
	if n, ok := ec.FetchRows(); ok {
		return n
	}
	return requested
}

// CacheLookup returns the table stored under key. The returned table may be
// modified by the caller without affecting the cached one.
func (ec *ExecutionContext) CacheLookup(ctx context.Context, key string) (*coldata.Table, bool) {
	t, ok := ec.caches.results.Load(key)
	if !ok {
		ec.Metrics.CacheMisses.Inc()
		return nil, false
	}
	ec.Metrics.CacheHits.Inc()
	ec.Eventf(ctx, "cache hit: %s", key)
	return t.Clone(), true
}

// CacheStore stores t under key, replacing any previous table.
func (ec *ExecutionContext) CacheStore(ctx context.Context, key string, t *coldata.Table) {
	ec.Eventf(ctx, "cache set: %s", key)
	ec.caches.results.Store(key, t.Clone())
}

// ExprCacheGet returns the column memoized under key.
func (ec *ExecutionContext) ExprCacheGet(key string) (*coldata.Vec, bool) {
	return ec.caches.exprs.Load(key)
}

// ExprCachePut memoizes v under key until the expression cache is cleared.
func (ec *ExecutionContext) ExprCachePut(key string, v *coldata.Vec) {
	ec.caches.exprs.Store(key, v)
}

// ClearExpressionCache drops all memoized expression results. The result
// cache is unaffected.
func (ec *ExecutionContext) ClearExpressionCache() {
	ec.caches.exprs.Clear()
}

// Verbose returns whether operator diagnostics are logged.
func (ec *ExecutionContext) Verbose() bool {
	return ec.Config.Verbose || log.V(2)
}

// Eventf logs an operator diagnostic if Verbose is true.
func (ec *ExecutionContext) Eventf(ctx context.Context, format string, args ...interface{}) {
	if ec.Verbose() {
		log.InfofDepth(ctx, 1, format, args...)
	}
}
