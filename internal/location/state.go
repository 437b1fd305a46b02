// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/geosnap/internal/logger"
)

const (
	// DeviceTimeout bounds a single device lookup.
	DeviceTimeout = 5 * time.Second

	SourceDefault = "default"
	SourceMap     = "map"
	SourceDevice  = "device"
)

// ErrSuperseded is reported when a device result arrived after a newer write.
var ErrSuperseded = errors.New("device location superseded by a newer update")

// Fix is a snapshot of the location state.
type Fix struct {
	Coordinate
	Source    string
	Seq       uint64
	UpdatedAt time.Time
}

// DeviceOutcome is delivered once for every device request.
type DeviceOutcome struct {
	Fix     Fix
	Applied bool
	Err     error
}

// State holds the current coordinate of a session. Every write bumps a sequence number so that
// device lookups issued before a newer write can be recognized and discarded.
type State struct {
	mu      sync.RWMutex
	current Fix
	clock   clockwork.Clock
	logger  *logger.Logger
	timeout time.Duration
}

// NewState returns a State initialized to def.
func NewState(def Coordinate, clock clockwork.Clock, log *logger.Logger) *State {
	return &State{
		current: Fix{Coordinate: def, Source: SourceDefault, UpdatedAt: clock.Now()},
		clock:   clock,
		logger:  log,
		timeout: DeviceTimeout,
	}
}

// SetTimeout changes the bound of subsequent device lookups. Non-positive values are ignored.
func (s *State) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.timeout = d
	s.mu.Unlock()
}

// Current returns the current fix.
func (s *State) Current() Fix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetFromMapTap sets the location to the coordinate the user picked on the map.
func (s *State) SetFromMapTap(coord Coordinate) Fix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(coord, SourceMap)
}

func (s *State) set(coord Coordinate, source string) Fix {
	s.current = Fix{
		Coordinate: coord,
		Source:     source,
		Seq:        s.current.Seq + 1,
		UpdatedAt:  s.clock.Now(),
	}
	return s.current
}

// ReportDevice applies a fix measured by the client device. ticket is the sequence number the
// client received when it started measuring; the fix is discarded with ErrSuperseded if the
// location was written since.
func (s *State) ReportDevice(ticket uint64, coord Coordinate) (Fix, error) {
	if !coord.Valid() {
		return s.Current(), fmt.Errorf("invalid device coordinate %f, %f", coord.Lat, coord.Lon)
	}
	fix, applied := s.applyIfCurrent(ticket, coord, SourceDevice)
	if !applied {
		s.logger.Debug("discarding stale device report", slog.Uint64("ticket", ticket),
			slog.Uint64("current", fix.Seq))
		return fix, ErrSuperseded
	}
	return fix, nil
}

// applyIfCurrent writes coord only if no other write happened since ticket was taken.
func (s *State) applyIfCurrent(ticket uint64, coord Coordinate, source string) (Fix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Seq != ticket {
		return s.current, false
	}
	moved := s.current.DistanceMeters(coord)
	fix := s.set(coord, source)
	s.logger.Debug("location moved", slog.String("source", source), slog.Float64("meters", moved))
	return fix, true
}

// RequestDevice starts a one-shot asynchronous device lookup. The returned channel receives
// exactly one outcome and is closed afterwards. The lookup uses ctx as parent, so callers should
// pass a context that outlives the request that triggered it.
func (s *State) RequestDevice(ctx context.Context, locator Locator) <-chan DeviceOutcome {
	s.mu.RLock()
	ticket := s.current.Seq
	timeout := s.timeout
	s.mu.RUnlock()

	outcome := make(chan DeviceOutcome, 1)
	go func() {
		defer close(outcome)
		lookupCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := safeLocate(lookupCtx, locator)
		if err == nil && !res.Valid() {
			err = fmt.Errorf("locator %s returned invalid coordinate %f, %f", locator.Name(), res.Lat, res.Lon)
		}
		if err != nil {
			s.logger.Warn("device location lookup failed", slog.String("locator", locator.Name()),
				logger.Err(err))
			outcome <- DeviceOutcome{Fix: s.Current(), Err: err}
			return
		}

		source := res.Source
		if source == "" {
			source = locator.Name()
		}
		fix, applied := s.applyIfCurrent(ticket, res.Coordinate, source)
		if !applied {
			s.logger.Debug("discarding stale device location", slog.Uint64("ticket", ticket),
				slog.Uint64("current", fix.Seq))
			outcome <- DeviceOutcome{Fix: fix, Err: ErrSuperseded}
			return
		}
		s.logger.Debug("device location applied", slog.String("source", source),
			slog.Float64("lat", fix.Lat), slog.Float64("lon", fix.Lon), slog.Float64("acc", fix.Acc))
		outcome <- DeviceOutcome{Fix: fix, Applied: true}
	}()
	return outcome
}
