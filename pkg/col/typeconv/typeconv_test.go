// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package typeconv

import (
	"testing"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/stretchr/testify/require"
)

func TestFromArrowType(t *testing.T) {
	for _, tc := range []struct {
		dt  arrow.DataType
		exp coltypes.T
	}{
		{arrow.FixedWidthTypes.Boolean, coltypes.Bool},
		{arrow.PrimitiveTypes.Int32, coltypes.Int64},
		{arrow.PrimitiveTypes.Uint16, coltypes.Int64},
		{arrow.PrimitiveTypes.Uint64, coltypes.Unhandled},
		{arrow.PrimitiveTypes.Float32, coltypes.Float64},
		{arrow.BinaryTypes.String, coltypes.Bytes},
		{arrow.ListOf(arrow.PrimitiveTypes.Int64), coltypes.List},
		{arrow.ListOf(arrow.FixedWidthTypes.Date32), coltypes.Unhandled},
		{&arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}, coltypes.Categorical},
		{arrow.FixedWidthTypes.Date32, coltypes.Unhandled},
	} {
		require.Equal(t, tc.exp, FromArrowType(tc.dt), "%s", tc.dt)
	}
}

func TestToArrowTypeRoundTrip(t *testing.T) {
	for _, typ := range []coltypes.T{
		coltypes.Bool, coltypes.Int64, coltypes.Float64, coltypes.Bytes, coltypes.Categorical,
	} {
		dt, err := ToArrowType(typ)
		require.NoError(t, err)
		require.Equal(t, typ, FromArrowType(dt))
	}
	_, err := ToArrowType(coltypes.List)
	require.Error(t, err)
}
