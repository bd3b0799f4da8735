// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colserde_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/colserde"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, s string) []coltypes.Field {
	fields, err := coltypes.ParseSchema(s)
	require.NoError(t, err)
	return fields
}

func TestReadCSV(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()

	const data = "# generated\nid;name;score\n1;ann;1.5\n2;;2\n3;bob;\n"
	tbl, err := colserde.ReadCSV(ctx, strings.NewReader(data), colserde.CSVOptions{
		Schema:    mustSchema(t, "a:int,b:cat,c:float"),
		HasHeader: true,
		Delimiter: ';',
		SkipRows:  1,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "score"}, tbl.Names())
	require.Equal(t, []coltypes.T{coltypes.Int64, coltypes.Categorical, coltypes.Float64}, tbl.Types())
	require.Equal(t, []string{"1 ann 1.5", "2 NULL 2", "3 bob NULL"}, coldata.RowStrings(tbl))

	tbl, err = colserde.ReadCSV(ctx, strings.NewReader("1,x\n2,y\n3,z\n"), colserde.CSVOptions{
		Schema:  mustSchema(t, "a:int,b:string"),
		MaxRows: 2,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"1 x", "2 y"}, coldata.RowStrings(tbl))
}

func TestReadCSVErrors(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()
	const data = "1,x\nnope,y\n3,z\n"

	_, err := colserde.ReadCSV(ctx, strings.NewReader(data), colserde.CSVOptions{
		Schema: mustSchema(t, "a:int,b:string"),
	})
	require.True(t, errors.Is(err, colexecerror.ErrParse), "%v", err)

	tbl, err := colserde.ReadCSV(ctx, strings.NewReader(data), colserde.CSVOptions{
		Schema:       mustSchema(t, "a:int,b:string"),
		IgnoreErrors: true,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"1 x", "3 z"}, coldata.RowStrings(tbl))

	_, err = colserde.ReadCSV(ctx, strings.NewReader(data), colserde.CSVOptions{})
	require.True(t, errors.Is(err, colexecerror.ErrSchema))
}

func TestReadCSVEmpty(t *testing.T) {
	defer leaktest.AfterTest(t)()
	tbl, err := colserde.ReadCSV(context.Background(), strings.NewReader("a,b\n"), colserde.CSVOptions{
		Schema:    mustSchema(t, "x:int,y:cat"),
		HasHeader: true,
	})
	require.NoError(t, err)
	require.Equal(t, 0, tbl.Height())
	require.Equal(t, []string{"a", "b"}, tbl.Names())
	require.Equal(t, []coltypes.T{coltypes.Int64, coltypes.Categorical}, tbl.Types())
}
