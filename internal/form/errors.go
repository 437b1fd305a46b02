// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package form

import (
	"errors"
	"fmt"
)

// Message IDs of validation failures, translated at the edges.
const (
	MsgUserIDRequired    = "Please enter a user ID"
	MsgInvalidFieldNames = "Invalid field names"
)

var (
	// ErrUserIDRequired is returned when a submission carries no user ID.
	ErrUserIDRequired = errors.New("user ID is required")

	// ErrInvalidFieldName is returned for field names that collide with a base column.
	ErrInvalidFieldName = errors.New("invalid field name")
)

// ValidationError reports user input that was rejected before anything was stored.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %q", e.Err, e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
