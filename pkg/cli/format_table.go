// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/util/humanizeutil"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
)

type tableDisplayFormat int

const (
	tableDisplayPretty tableDisplayFormat = iota
	tableDisplayCSV
	tableDisplayTSV
)

func parseDisplayFormat(s string) (tableDisplayFormat, error) {
	switch strings.ToLower(s) {
	case "table", "pretty":
		return tableDisplayPretty, nil
	case "csv":
		return tableDisplayCSV, nil
	case "tsv":
		return tableDisplayTSV, nil
	default:
		return 0, usageErrorf("unknown --%s %q; valid formats are table, csv and tsv", formatFlag.Name, s)
	}
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return humanizeutil.Count(n) + " rows"
}

// tableRows returns the values of t formatted as strings, row by row.
func tableRows(t *coldata.Table) [][]string {
	rows := make([][]string, t.Height())
	for i := range rows {
		row := make([]string, t.Width())
		for j, c := range t.ColVecs() {
			row[j] = c.PrettyValueAt(i)
		}
		rows[i] = row
	}
	return rows
}

// printTable writes t to w in the given format.
func printTable(w io.Writer, t *coldata.Table, format tableDisplayFormat) error {
	rows := tableRows(t)
	switch format {
	case tableDisplayPretty:
		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader(t.Names())
		table.AppendBulk(rows)
		table.Render()
		fmt.Fprintf(w, "(%s)\n", pluralRows(len(rows)))
		return nil

	case tableDisplayCSV, tableDisplayTSV:
		csvWriter := csv.NewWriter(w)
		if format == tableDisplayTSV {
			csvWriter.Comma = '\t'
		}
		_ = csvWriter.Write(t.Names())
		return csvWriter.WriteAll(rows)
	}
	return nil
}

// printMetrics writes the counters gathered by reg.
func printMetrics(w io.Writer, reg prometheus.Gatherer, elapsed time.Duration) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"metric", "value"})
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := int(m.GetCounter().GetValue())
			table.Append([]string{mf.GetName(), humanizeutil.Count(v)})
		}
	}
	table.Append([]string{"elapsed", humanizeutil.Duration(elapsed)})
	table.Render()
	return nil
}
