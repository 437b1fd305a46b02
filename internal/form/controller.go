// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package form implements the submit, edit and delete workflow on top of a record store.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/looplab/fsm"

	"github.com/wneessen/geosnap/internal/geocode"
	"github.com/wneessen/geosnap/internal/location"
	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/record"
	"github.com/wneessen/geosnap/internal/vartype"
)

const (
	StateIdle      = "idle"
	StateComposing = "composing"
	StateEditing   = "editing"

	EventBegin  = "begin"
	EventEdit   = "edit"
	EventSubmit = "submit"
	EventReset  = "reset"
)

// Action tells whether a submission created or replaced a record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Message IDs of submission results.
const (
	MsgRecordSaved   = "Record saved"
	MsgRecordUpdated = "Record updated"
	MsgRecordDeleted = "Record deleted"
)

// Resolver turns coordinates into address text.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) geocode.Result
}

// Input is a single form submission. Fields not listed in the field-name list are ignored and
// listed fields missing from Fields are stored empty.
type Input struct {
	UserID string
	Fields map[string]string
	Photo  []byte
}

// Outcome describes an accepted submission.
type Outcome struct {
	Action     Action
	Index      int
	Record     record.Record
	Resolution geocode.Result
}

// Message returns the message ID matching the action.
func (o Outcome) Message() string {
	if o.Action == ActionUpdated {
		return MsgRecordUpdated
	}
	return MsgRecordSaved
}

// Draft is the form content restored for editing. The photo is not part of it.
type Draft struct {
	Index       int
	UserID      string
	Fields      []record.Field
	Coordinates record.Coordinates
	Address     string
}

// Preview is the address of the current location without storing anything.
type Preview struct {
	Location   location.Fix
	Resolution geocode.Result
	Address    string
}

// Config carries the collaborators of a Controller.
type Config struct {
	Store     *record.Store
	Location  *location.State
	Geocoder  Resolver
	Fields    *FieldNames
	Clock     clockwork.Clock
	Translate func(string) string
	Logger    *logger.Logger
}

// Controller serializes all form operations of a session.
type Controller struct {
	mu        sync.Mutex
	machine   *fsm.FSM
	editIndex vartype.VarInt

	store     *record.Store
	location  *location.State
	geocoder  Resolver
	fields    *FieldNames
	clock     clockwork.Clock
	translate func(string) string
	logger    *logger.Logger
}

// New returns a Controller in state idle.
func New(conf Config) *Controller {
	ctrl := &Controller{
		store:     conf.Store,
		location:  conf.Location,
		geocoder:  conf.Geocoder,
		fields:    conf.Fields,
		clock:     conf.Clock,
		translate: conf.Translate,
		logger:    conf.Logger,
	}
	if ctrl.clock == nil {
		ctrl.clock = clockwork.NewRealClock()
	}
	if ctrl.translate == nil {
		ctrl.translate = func(s string) string { return s }
	}
	ctrl.machine = fsm.NewFSM(StateIdle,
		fsm.Events{
			{Name: EventBegin, Src: []string{StateIdle, StateComposing, StateEditing}, Dst: StateComposing},
			{Name: EventEdit, Src: []string{StateIdle, StateComposing, StateEditing}, Dst: StateEditing},
			{Name: EventSubmit, Src: []string{StateComposing}, Dst: StateIdle},
			{Name: EventReset, Src: []string{StateIdle, StateComposing, StateEditing}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				ctrl.logger.Debug("form state changed", slog.String("event", e.Event),
					slog.String("from", e.Src), slog.String("to", e.Dst))
			},
		},
	)
	return ctrl
}

// State returns the current state name.
func (c *Controller) State() string {
	return c.machine.Current()
}

// EditIndex returns the index of the record being edited.
func (c *Controller) EditIndex() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editIndex.Get()
}

// EditIndexPtr returns the index of the record being edited, or nil outside edit mode.
func (c *Controller) EditIndexPtr() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editIndex.Ptr()
}

// Fields returns the field-name list the controller applies to submissions.
func (c *Controller) Fields() *FieldNames {
	return c.fields
}

// Submit validates the input, resolves the address of the current location and appends a new
// record, or overwrites the record being edited. Validation failures and a stale edit index
// leave the store untouched and end the edit.
func (c *Controller) Submit(ctx context.Context, in Input) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fire(ctx, EventBegin); err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(in.UserID) == "" {
		c.endEdit(ctx)
		return Outcome{}, &ValidationError{Field: "user_id", Message: MsgUserIDRequired, Err: ErrUserIDRequired}
	}

	fix := c.location.Current()
	resolution := c.geocoder.Resolve(ctx, fix.Lat, fix.Lon)
	address := resolution.Text()
	if resolution.Status != geocode.StatusResolved {
		address = c.translate(address)
	}

	names := c.fields.Names()
	fields := make([]record.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, record.Field{Name: name, Value: in.Fields[name]})
	}

	rec := record.Record{
		UserID:        in.UserID,
		Timestamp:     c.clock.Now(),
		Coordinates:   record.Coordinates{Lat: fix.Lat, Lon: fix.Lon},
		Address:       address,
		AddressStatus: resolution.Status.String(),
		Fields:        fields,
		Photo:         in.Photo,
	}

	outcome := Outcome{Record: rec, Resolution: resolution}
	if idx, editing := c.editIndex.Get(); editing {
		c.editIndex.Reset()
		if err := c.store.Update(idx, rec); err != nil {
			c.endEdit(ctx)
			return Outcome{}, fmt.Errorf("failed to update record: %w", err)
		}
		outcome.Action, outcome.Index = ActionUpdated, idx
	} else {
		outcome.Action, outcome.Index = ActionCreated, c.store.Append(rec)
	}
	if err := c.fire(ctx, EventSubmit); err != nil {
		return outcome, err
	}

	c.logger.Debug("record submitted", slog.String("action", string(outcome.Action)),
		slog.Int("index", outcome.Index), slog.String("address_status", rec.AddressStatus))
	return outcome, nil
}

// StartEdit marks the record at index as being edited and returns its content.
func (c *Controller) StartEdit(ctx context.Context, index int) (Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.store.Get(index)
	if err != nil {
		return Draft{}, err
	}
	if err = c.fire(ctx, EventEdit); err != nil {
		return Draft{}, err
	}
	c.editIndex.Set(index)
	return Draft{
		Index:       index,
		UserID:      rec.UserID,
		Fields:      rec.Fields,
		Coordinates: rec.Coordinates,
		Address:     rec.Address,
	}, nil
}

// Delete removes the record at index. Deleting the edited record ends the edit; deleting an
// earlier record shifts the edit index so it keeps addressing the same record.
func (c *Controller) Delete(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(index); err != nil {
		return err
	}
	editing, ok := c.editIndex.Get()
	switch {
	case !ok || index > editing:
	case index == editing:
		c.endEdit(ctx)
	default:
		c.editIndex.Set(editing - 1)
	}
	return nil
}

// Cancel ends an edit without storing anything.
func (c *Controller) Cancel(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endEdit(ctx)
}

// Preview resolves the address of the current location.
func (c *Controller) Preview(ctx context.Context) Preview {
	fix := c.location.Current()
	resolution := c.geocoder.Resolve(ctx, fix.Lat, fix.Lon)
	address := resolution.Text()
	if resolution.Status != geocode.StatusResolved {
		address = c.translate(address)
	}
	return Preview{Location: fix, Resolution: resolution, Address: address}
}

func (c *Controller) endEdit(ctx context.Context) {
	c.editIndex.Reset()
	if err := c.fire(ctx, EventReset); err != nil {
		c.logger.Error("failed to reset form state", logger.Err(err))
	}
}

func (c *Controller) fire(ctx context.Context, event string) error {
	err := c.machine.Event(context.WithoutCancel(ctx), event)
	var noTransition fsm.NoTransitionError
	if err == nil || errors.As(err, &noTransition) {
		return nil
	}
	return fmt.Errorf("form transition %q from %q failed: %w", event, c.machine.Current(), err)
}
