// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package record

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrIndexOutOfRange is returned when an index does not address an existing record.
var ErrIndexOutOfRange = errors.New("record index out of range")

// IndexError describes a stale or invalid index. It matches ErrIndexOutOfRange with errors.Is.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("record index %d out of range (records: %d)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Store holds the ordered records of a single session. Indices are positions in the
// current collection, so any index held across a mutation must be re-validated.
type Store struct {
	mu      sync.RWMutex
	records []Record
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Append adds the record at the end of the collection and returns its index.
func (s *Store) Append(rec Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec.Clone())
	return len(s.records) - 1
}

// Update replaces the record at index. Fields are not merged.
func (s *Store) Update(index int, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.records[index] = rec.Clone()
	return nil
}

// Delete removes the record at index and shifts all following records down by one. The vacated
// slot is zeroed so photo bytes of the removed record can be collected.
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.records = slices.Delete(s.records, index, index+1)
	return nil
}

// Get returns a copy of the record at index.
func (s *Store) Get(index int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkIndex(index); err != nil {
		return Record{}, err
	}
	return s.records[index].Clone(), nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns copies of all records in collection order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

// Table returns a tabular snapshot of the current collection for export.
func (s *Store) Table() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTable(s.records)
}

func (s *Store) checkIndex(index int) error {
	if index < 0 || index >= len(s.records) {
		return &IndexError{Index: index, Len: len(s.records)}
	}
	return nil
}
