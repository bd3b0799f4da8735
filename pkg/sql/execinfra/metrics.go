// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package execinfra

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the counters maintained while executing queries.
type Metrics struct {
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	JoinOutputRows     prometheus.Counter
	GroupByPartitioned prometheus.Counter
	GroupBySinglePass  prometheus.Counter
	RowsScanned        prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg, if it is not
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	newCounter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "colquery",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		CacheHits:          newCounter("cache_hits_total", "Result cache lookups that found a table."),
		CacheMisses:        newCounter("cache_misses_total", "Result cache lookups that found nothing."),
		JoinOutputRows:     newCounter("join_output_rows_total", "Rows produced by hash joins."),
		GroupByPartitioned: newCounter("groupby_partitioned_total", "Group-bys run with partitioned aggregation."),
		GroupBySinglePass:  newCounter("groupby_single_pass_total", "Group-bys run in a single pass."),
		RowsScanned:        newCounter("rows_scanned_total", "Rows read by scan operators."),
	}
	if reg != nil {
		reg.MustRegister(
			m.CacheHits, m.CacheMisses, m.JoinOutputRows,
			m.GroupByPartitioned, m.GroupBySinglePass, m.RowsScanned,
		)
	}
	return m
}
