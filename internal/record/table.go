// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package record

import (
	"iter"
	"slices"
)

// Table is a point-in-time tabular view of the records. The photo is never part of it.
type Table struct {
	header  []string
	records []Record
}

func newTable(records []Record) *Table {
	header := BaseColumns()
	seen := make(map[string]struct{})
	for _, col := range header {
		seen[col] = struct{}{}
	}

	snapshot := make([]Record, len(records))
	for i, rec := range records {
		snapshot[i] = rec
		snapshot[i].Photo = nil
		snapshot[i].Fields = slices.Clone(rec.Fields)
		for _, f := range rec.Fields {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			header = append(header, f.Name)
		}
	}

	return &Table{header: header, records: snapshot}
}

// Header returns the column names: the base columns followed by every custom field name
// in the order it was first seen.
func (t *Table) Header() []string {
	return slices.Clone(t.header)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.records)
}

// Rows yields one row per record in collection order. Missing custom fields render empty.
// The sequence can be ranged over any number of times.
func (t *Table) Rows() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for _, rec := range t.records {
			row := make([]string, len(t.header))
			for i, col := range t.header {
				row[i] = rec.column(col)
			}
			if !yield(row) {
				return
			}
		}
	}
}
