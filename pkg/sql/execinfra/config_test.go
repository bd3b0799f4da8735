// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package execinfra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigEnv(t *testing.T) {
	defer leaktest.AfterTest(t)()
	t.Setenv("COLQ_NUM_WORKERS", "3")
	t.Setenv("COLQ_GROUPBY_PARTITION_THRESHOLD", "0.5")
	cfg := DefaultConfig()
	require.Equal(t, 3, cfg.NumWorkers)
	require.Equal(t, 3, cfg.NumJoinPartitions)
	require.Equal(t, 0.5, cfg.PartitionedGroupByThreshold)
	require.True(t, cfg.ParallelJoin)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	defer leaktest.AfterTest(t)()
	t.Setenv("COLQ_NUM_WORKERS", "4")
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}

	cfg, err := LoadConfig(write("ok.yaml", "num_join_partitions: 8\nparallel_join: false\nverbose: true\n"))
	require.NoError(t, err)
	require.Equal(t, Config{
		NumWorkers:                  4,
		NumJoinPartitions:           8,
		PartitionedGroupByThreshold: DefaultPartitionedGroupByThreshold,
		ParallelJoin:                false,
		Verbose:                     true,
	}, cfg)

	_, err = LoadConfig(write("bad.yaml", "partitioned_groupby_threshold: 2\n"))
	require.ErrorContains(t, err, "partitioned_groupby_threshold")

	_, err = LoadConfig(write("garbage.yaml", "num_workers: [\n"))
	require.True(t, errors.Is(err, colexecerror.ErrParse))

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.True(t, errors.Is(err, colexecerror.ErrIO))
}
