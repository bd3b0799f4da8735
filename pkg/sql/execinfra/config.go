// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package execinfra

import (
	"os"
	"runtime"

	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/envutil"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPartitionedGroupByThreshold is the fraction of distinct keys above
// which the partitioned group-by falls back to a single pass.
const DefaultPartitionedGroupByThreshold = 0.3

// Config holds the tunables of query execution.
type Config struct {
	// NumWorkers is the number of threads used for fan-out work, including the
	// number of per-worker hash tables built by the hash joiner and the number
	// of partitions of the partitioned group-by.
	NumWorkers int `yaml:"num_workers"`
	// NumJoinPartitions is the number of chunks the probe side of a hash join
	// is split into.
	NumJoinPartitions int `yaml:"num_join_partitions"`
	// PartitionedGroupByThreshold is compared against distinct/rows of a
	// categorical group-by key.
	PartitionedGroupByThreshold float64 `yaml:"partitioned_groupby_threshold"`
	// ParallelJoin is the default for join operators that do not say whether
	// their inputs are evaluated concurrently.
	ParallelJoin bool `yaml:"parallel_join"`
	// Verbose enables the diagnostic messages of the operators regardless of
	// the log verbosity.
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the configuration derived from the environment:
// COLQ_NUM_WORKERS, COLQ_JOIN_PARTITIONS, COLQ_GROUPBY_PARTITION_THRESHOLD and
// COLQ_VERBOSE override the built-in defaults.
func DefaultConfig() Config {
	workers := envutil.EnvOrDefaultInt("COLQ_NUM_WORKERS", runtime.GOMAXPROCS(0))
	return Config{
		NumWorkers:        workers,
		NumJoinPartitions: envutil.EnvOrDefaultInt("COLQ_JOIN_PARTITIONS", workers),
		PartitionedGroupByThreshold: envutil.EnvOrDefaultFloat64(
			"COLQ_GROUPBY_PARTITION_THRESHOLD", DefaultPartitionedGroupByThreshold),
		ParallelJoin: true,
		Verbose:      envutil.EnvOrDefaultBool("COLQ_VERBOSE", false),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys absent from the
// file keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, colexecerror.WrapIO(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, colexecerror.WrapParse(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.NumWorkers < 1 {
		return errors.Newf("num_workers must be positive, got %d", c.NumWorkers)
	}
	if c.NumJoinPartitions < 1 {
		return errors.Newf("num_join_partitions must be positive, got %d", c.NumJoinPartitions)
	}
	if c.PartitionedGroupByThreshold < 0 || c.PartitionedGroupByThreshold > 1 {
		return errors.Newf("partitioned_groupby_threshold must be in [0, 1], got %g",
			c.PartitionedGroupByThreshold)
	}
	return nil
}
