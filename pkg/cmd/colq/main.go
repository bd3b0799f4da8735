// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// colq runs columnar queries over CSV and Parquet files.
package main

import "github.com/cockroachdb/colquery/pkg/cli"

func main() {
	cli.Main()
}
