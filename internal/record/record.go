// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package record holds the field observations collected during a session.
package record

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// TimestampFormat is the layout used whenever a record timestamp is rendered as text.
const TimestampFormat = "2006-01-02 15:04:05"

// Base columns of every exported record, in export order.
const (
	ColumnUserID      = "user_id"
	ColumnTimestamp   = "timestamp"
	ColumnCoordinates = "coordinates"
	ColumnAddress     = "address"
)

var baseColumns = []string{ColumnUserID, ColumnTimestamp, ColumnCoordinates, ColumnAddress}

// BaseColumns returns the columns every record exports regardless of its custom fields.
func BaseColumns() []string {
	return slices.Clone(baseColumns)
}

// IsBaseColumn reports whether name equals one of the base columns, ignoring case.
func IsBaseColumn(name string) bool {
	for _, col := range baseColumns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the pair as "lat, lon" using the shortest exact float representation.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Field is a single user-defined attribute of a record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one submitted field observation.
type Record struct {
	UserID        string
	Timestamp     time.Time
	Coordinates   Coordinates
	Address       string
	AddressStatus string
	Fields        []Field
	Photo         []byte
}

// Value returns the value of the custom field with the given name.
func (r Record) Value(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// HasPhoto reports whether photo bytes were attached on submission.
func (r Record) HasPhoto() bool {
	return len(r.Photo) > 0
}

// Clone returns a deep copy so that callers never share slices with the store.
func (r Record) Clone() Record {
	c := r
	c.Fields = slices.Clone(r.Fields)
	if r.Photo != nil {
		c.Photo = slices.Clone(r.Photo)
	}
	return c
}

// column returns the textual value of a record for the given export column.
func (r Record) column(name string) string {
	switch name {
	case ColumnUserID:
		return r.UserID
	case ColumnTimestamp:
		if r.Timestamp.IsZero() {
			return ""
		}
		return r.Timestamp.Format(TimestampFormat)
	case ColumnCoordinates:
		return r.Coordinates.String()
	case ColumnAddress:
		return r.Address
	}
	val, _ := r.Value(name)
	return val
}
