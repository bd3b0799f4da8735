// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colserde_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/colserde"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/stretchr/testify/require"
)

// randomTable returns a table with a column of every supported type and
// random values, a fraction of which are null.
func randomTable(t *testing.T, rng *rand.Rand, height int) *coldata.Table {
	typs := []coltypes.T{
		coltypes.Bool, coltypes.Int64, coltypes.Float64, coltypes.Bytes, coltypes.Categorical,
	}
	cols := make([]*coldata.Vec, 0, len(typs)+1)
	for i, typ := range typs {
		b := coldata.NewBuilder(fmt.Sprintf("c%d", i), typ)
		for row := 0; row < height; row++ {
			require.NoError(t, b.Append(randomValue(rng, typ)))
		}
		cols = append(cols, b.Finish())
	}
	lb := coldata.NewListBuilder("list", coltypes.Int64)
	for row := 0; row < height; row++ {
		if rng.Intn(5) == 0 {
			lb.AppendNull()
			continue
		}
		elems := make([]interface{}, rng.Intn(4))
		for j := range elems {
			elems[j] = randomValue(rng, coltypes.Int64)
		}
		require.NoError(t, lb.Append(elems))
	}
	cols = append(cols, lb.Finish())
	res, err := coldata.NewTable(cols...)
	require.NoError(t, err)
	return res
}

func randomValue(rng *rand.Rand, typ coltypes.T) interface{} {
	if rng.Intn(5) == 0 {
		return nil
	}
	switch typ {
	case coltypes.Bool:
		return rng.Intn(2) == 0
	case coltypes.Int64:
		return rng.Int63n(100) - 50
	case coltypes.Float64:
		return rng.NormFloat64()
	default:
		return fmt.Sprintf("s%d", rng.Intn(10))
	}
}

func TestArrowRoundTripRandom(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rng := rand.New(rand.NewSource(int64(rand.Uint64())))

	for _, height := range []int{0, 1, 17, 1000} {
		expected := randomTable(t, rng, height)
		rec, err := colserde.TableToRecord(memory.DefaultAllocator, expected)
		require.NoError(t, err)
		actual, err := colserde.RecordToTable(rec)
		rec.Release()
		require.NoError(t, err)
		coldata.AssertEqualTables(t, expected, actual)
	}
}

func TestArrowRoundTripWindow(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rng := rand.New(rand.NewSource(1))

	full := randomTable(t, rng, 100)
	expected := full.Window(30, 60)
	rec, err := colserde.TableToRecord(memory.DefaultAllocator, expected)
	require.NoError(t, err)
	defer rec.Release()

	// A slice of a record exercises the arrow array offsets.
	sliced := rec.NewSlice(10, 20)
	defer sliced.Release()
	actual, err := colserde.RecordToTable(sliced)
	require.NoError(t, err)
	coldata.AssertEqualTables(t, expected.Window(10, 20), actual)
}

func TestArrowSchema(t *testing.T) {
	defer leaktest.AfterTest(t)()
	tbl, err := coldata.NewTable(
		coldata.NewInt64Vec("a", []int64{1}),
		coldata.NewCategoricalVec("b", []string{"x"}),
	)
	require.NoError(t, err)
	schema, err := colserde.ArrowSchema(tbl)
	require.NoError(t, err)
	require.Equal(t, "a", schema.Field(0).Name)
	require.Equal(t, "int64", schema.Field(0).Type.String())
	require.True(t, schema.Field(1).Nullable)
}
