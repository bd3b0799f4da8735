// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package typeconv maps between arrow data types and the physical column
// types of the execution engine.
package typeconv

import (
	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/errors"
)

// FromArrowType returns the column type used to hold values of the arrow
// type dt. Integer widths collapse to Int64, float widths to Float64 and
// string-like types to Bytes; a dictionary of strings is Categorical. Types
// without a counterpart map to Unhandled.
func FromArrowType(dt arrow.DataType) coltypes.T {
	switch dt.ID() {
	case arrow.BOOL:
		return coltypes.Bool
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return coltypes.Int64
	case arrow.FLOAT32, arrow.FLOAT64:
		return coltypes.Float64
	case arrow.STRING, arrow.LARGE_STRING, arrow.BINARY:
		return coltypes.Bytes
	case arrow.DICTIONARY:
		if d, ok := dt.(*arrow.DictionaryType); ok && FromArrowType(d.ValueType) == coltypes.Bytes {
			return coltypes.Categorical
		}
	case arrow.LIST:
		if FromArrowType(dt.(*arrow.ListType).Elem()) != coltypes.Unhandled {
			return coltypes.List
		}
	}
	return coltypes.Unhandled
}

// ToArrowType returns the arrow type of a scalar column type. Lists need
// their element type and are built with arrow.ListOf by the caller.
func ToArrowType(t coltypes.T) (arrow.DataType, error) {
	switch t {
	case coltypes.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case coltypes.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case coltypes.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case coltypes.Bytes:
		return arrow.BinaryTypes.String, nil
	case coltypes.Categorical:
		return &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Uint32,
			ValueType: arrow.BinaryTypes.String,
		}, nil
	default:
		return nil, errors.AssertionFailedf("no arrow type for %s", t)
	}
}
