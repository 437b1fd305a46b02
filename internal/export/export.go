// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package export writes tabular record snapshots as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"time"
)

const (
	DefaultFilePrefix = "urban_research_data"
	FileTimeFormat    = "20060102_150405"
	ContentType       = "text/csv; charset=utf-8"
)

// Tabular is a header plus a restartable sequence of rows of the same width.
type Tabular interface {
	Header() []string
	Rows() iter.Seq[[]string]
}

// WriteCSV writes the header row followed by every data row. Values are quoted as required by
// RFC 4180.
func WriteCSV(w io.Writer, table Tabular) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for row := range table.Rows() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// FileName returns the download name <prefix>_<YYYYMMDD_HHMMSS>.csv.
func FileName(prefix string, at time.Time) string {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return prefix + "_" + at.Format(FileTimeFormat) + ".csv"
}
