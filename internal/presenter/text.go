// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	// MaxCellWidth is the display width at which text table cells are cut off.
	MaxCellWidth = 40
	indexHeader  = "#"
	cellGap      = "  "
	ellipsis     = "…"
)

// Tabular is a header plus rows of cells.
type Tabular interface {
	Header() []string
	Rows() iter.Seq[[]string]
}

// WriteText renders the table with aligned columns, prefixed by the row index. Column widths are
// measured in terminal cells so Hangul and other wide runes line up.
func WriteText(w io.Writer, table Tabular) error {
	header := append([]string{indexHeader}, table.Header()...)
	rows := [][]string{header}
	index := 0
	for row := range table.Rows() {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, strconv.Itoa(index))
		for _, cell := range row {
			cells = append(cells, cellText(cell))
		}
		rows = append(rows, cells)
		index++
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	buf := bufio.NewWriter(w)
	for n, row := range rows {
		writeLine(buf, row, widths)
		if n == 0 {
			rule := make([]string, len(widths))
			for i, width := range widths {
				rule[i] = strings.Repeat("-", width)
			}
			writeLine(buf, rule, widths)
		}
	}
	return buf.Flush()
}

func writeLine(buf *bufio.Writer, cells []string, widths []int) {
	last := len(widths) - 1
	for i, width := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		if i == last {
			_, _ = buf.WriteString(cell)
			break
		}
		_, _ = buf.WriteString(runewidth.FillRight(cell, width))
		_, _ = buf.WriteString(cellGap)
	}
	_ = buf.WriteByte('\n')
}

func cellText(val string) string {
	val = strings.Join(strings.Fields(val), " ")
	return runewidth.Truncate(val, MaxCellWidth, ellipsis)
}
