// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package coltypes describes the physical types a column of the columnar
// engine may have.
package coltypes

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// T represents an exec physical type - a bytes representation of a particular
// column type.
type T int

const (
	// Bool is a column of type bool.
	Bool T = iota
	// Int64 is a column of type int64.
	Int64
	// Float64 is a column of type float64.
	Float64
	// Bytes is a column of type string. The name is kept from the byte-slice
	// representation that it replaced; values are valid UTF-8.
	Bytes
	// Categorical is a column of uint32 codes into a dictionary of strings
	// that is shared by every window of the column.
	Categorical
	// List is a column where every row holds a (possibly empty) list of
	// values of a single element type.
	List

	// Unhandled is a temporary value that represents an unhandled type.
	Unhandled
)

// AllTypes is a slice of all scalar exec types.
var AllTypes = []T{Bool, Int64, Float64, Bytes, Categorical}

// String implements the fmt.Stringer interface.
func (t T) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int64:
		return "int"
	case Float64:
		return "float"
	case Bytes:
		return "string"
	case Categorical:
		return "cat"
	case List:
		return "list"
	default:
		return fmt.Sprintf("unhandled(%d)", int(t))
	}
}

// IsNumeric returns whether values of the type support arithmetic.
func (t T) IsNumeric() bool {
	return t == Int64 || t == Float64
}

// IsStringLike returns whether the values of the type are strings, either
// stored directly or through a dictionary.
func (t T) IsStringLike() bool {
	return t == Bytes || t == Categorical
}

// FromString parses a type name as produced by String. A few common aliases
// are accepted as well.
func FromString(s string) (T, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return Bool, nil
	case "int", "int64", "integer":
		return Int64, nil
	case "float", "float64", "double":
		return Float64, nil
	case "string", "str", "text", "bytes":
		return Bytes, nil
	case "cat", "categorical":
		return Categorical, nil
	}
	return Unhandled, errors.Newf("unknown column type %q", s)
}

// Field is a named type; a list of fields describes the schema of a source.
type Field struct {
	Name string
	Type T
}

// ParseSchema parses a comma separated list of name:type pairs, for example
// "a:int,b:string".
func ParseSchema(s string) ([]Field, error) {
	var fields []Field
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typName, ok := strings.Cut(part, ":")
		if !ok {
			return nil, errors.Newf("malformed schema field %q, expected name:type", part)
		}
		typ, err := FromString(typName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: strings.TrimSpace(name), Type: typ})
	}
	if len(fields) == 0 {
		return nil, errors.New("empty schema")
	}
	return fields, nil
}
