// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package form

import (
	"slices"
	"strings"
	"sync"

	"github.com/wneessen/geosnap/internal/record"
)

// FieldNames is the ordered set of custom field names applied to new submissions.
type FieldNames struct {
	mu    sync.RWMutex
	names []string
}

// NewFieldNames returns a list initialized with names.
func NewFieldNames(names ...string) (*FieldNames, error) {
	list := &FieldNames{}
	if err := list.Set(names); err != nil {
		return nil, err
	}
	return list, nil
}

// ParseFieldNames splits a comma separated list and normalizes it.
func ParseFieldNames(raw string) ([]string, error) {
	return NormalizeFieldNames(strings.Split(raw, ","))
}

// Names returns a copy of the current names.
func (f *FieldNames) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.names)
}

// Set replaces the list. Names are trimmed, empty entries dropped and duplicates removed keeping
// the first occurrence. The list is left unchanged on error.
func (f *FieldNames) Set(names []string) error {
	normalized, err := NormalizeFieldNames(names)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = normalized
	return nil
}

// SetFromString replaces the list from a comma separated string.
func (f *FieldNames) SetFromString(raw string) error {
	normalized, err := ParseFieldNames(raw)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = normalized
	return nil
}

func (f *FieldNames) String() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return strings.Join(f.names, ", ")
}

// NormalizeFieldNames trims names, drops empty entries and removes duplicates keeping the first
// occurrence. Names of base columns are rejected.
func NormalizeFieldNames(names []string) ([]string, error) {
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(normalized, name) {
			continue
		}
		if record.IsBaseColumn(name) {
			return nil, &ValidationError{Field: name, Message: MsgInvalidFieldNames, Err: ErrInvalidFieldName}
		}
		normalized = append(normalized, name)
	}
	return normalized, nil
}
