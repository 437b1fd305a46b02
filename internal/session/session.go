// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package session keeps the per-user state of the service: records, location, form workflow and
// the unlocked geocoding credential.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/wneessen/geosnap/internal/form"
	"github.com/wneessen/geosnap/internal/geocode"
	"github.com/wneessen/geosnap/internal/location"
	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/record"
)

const sweepJobName = "session_sweep_job"

// Message IDs of the access gate.
const (
	MsgAuthenticated = "Authenticated"
	MsgWrongPassword = "Wrong password"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrWrongSecret is returned when the access secret does not match.
	ErrWrongSecret = errors.New("wrong access secret")
)

// Session is the state of one user.
type Session struct {
	ID       string
	Created  time.Time
	Store    *record.Store
	Location *location.State
	Geocoder *geocode.Client
	Form     *form.Controller

	mu        sync.Mutex
	lastSeen  time.Time
	unlocked  bool
	refreshed bool
}

// Unlocked reports whether the session passed the access gate.
func (s *Session) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// LastSeen returns the time of the last lookup of the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// Config carries everything the Manager needs to build sessions.
type Config struct {
	Secret          string
	APIKey          string
	GeocoderFactory geocode.Factory
	Locator         location.Locator
	DefaultLocation location.Coordinate
	LookupTimeout   time.Duration
	FieldNames      []string
	IdleTimeout     time.Duration
	SweepInterval   time.Duration
	Clock           clockwork.Clock
	Translate       func(string) string
	Logger          *logger.Logger
}

// Manager owns all sessions and expires idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	conf      Config
	clock     clockwork.Clock
	logger    *logger.Logger
	scheduler gocron.Scheduler

	ctxMu   sync.RWMutex
	baseCtx context.Context
}

// NewManager validates the field names and prepares the sweep scheduler.
func NewManager(conf Config) (*Manager, error) {
	if _, err := form.NewFieldNames(conf.FieldNames...); err != nil {
		return nil, fmt.Errorf("invalid field names: %w", err)
	}
	if conf.Clock == nil {
		conf.Clock = clockwork.NewRealClock()
	}
	scheduler, err := gocron.NewScheduler(gocron.WithClock(conf.Clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		conf:      conf,
		clock:     conf.Clock,
		logger:    conf.Logger,
		scheduler: scheduler,
		baseCtx:   context.Background(),
	}, nil
}

// Start schedules the idle sweep. Device lookups started afterwards are bound to ctx.
func (m *Manager) Start(ctx context.Context) error {
	m.ctxMu.Lock()
	m.baseCtx = ctx
	m.ctxMu.Unlock()

	if m.conf.SweepInterval > 0 && m.conf.IdleTimeout > 0 {
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(m.conf.SweepInterval),
			gocron.NewTask(func(context.Context) { m.Sweep() }),
			gocron.WithContext(ctx),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithName(sweepJobName),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", sweepJobName, err)
		}
	}
	m.scheduler.Start()
	return nil
}

// Shutdown stops the scheduler.
func (m *Manager) Shutdown() error {
	return m.scheduler.Shutdown()
}

// Create builds a new session. Without a configured secret the session is unlocked right away.
func (m *Manager) Create() (*Session, error) {
	fields, err := form.NewFieldNames(m.conf.FieldNames...)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	sess := &Session{
		ID:       uuid.NewString(),
		Created:  now,
		Store:    record.NewStore(),
		Location: location.NewState(m.conf.DefaultLocation, m.clock, m.logger),
		Geocoder: geocode.NewClient(m.conf.GeocoderFactory, m.logger),
		lastSeen: now,
	}
	sess.Location.SetTimeout(m.conf.LookupTimeout)
	sess.Form = form.New(form.Config{
		Store:     sess.Store,
		Location:  sess.Location,
		Geocoder:  sess.Geocoder,
		Fields:    fields,
		Clock:     m.clock,
		Translate: m.conf.Translate,
		Logger:    m.logger.With(slog.String("session", sess.ID)),
	})

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	if m.conf.Secret == "" {
		m.unlock(sess)
	}
	m.logger.Debug("session created", slog.String("session", sess.ID))
	return sess, nil
}

// Get returns the session and marks it as recently used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch(m.clock.Now())
	return sess, nil
}

// Close removes the session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.logger.Debug("session closed", slog.String("session", id))
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the idle timeout and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.conf.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.clock.Now().Add(-m.conf.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired idle sessions", slog.Int("removed", removed), slog.Int("remaining", len(m.sessions)))
	}
	return removed
}

// Unlock checks the secret in constant time. On success the geocoding credential is installed for
// the rest of the session and the first successful unlock triggers a device location refresh,
// whose outcome channel is returned (nil if no refresh was started).
func (m *Manager) Unlock(id, secret string) (<-chan location.DeviceOutcome, error) {
	sess, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if m.conf.Secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(m.conf.Secret)) != 1 {
		m.logger.Warn("access gate rejected secret", slog.String("session", id))
		return nil, ErrWrongSecret
	}
	return m.unlock(sess), nil
}

// RefreshLocation starts a device lookup for the session.
func (m *Manager) RefreshLocation(id string) (<-chan location.DeviceOutcome, error) {
	sess, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return m.refresh(sess), nil
}

func (m *Manager) unlock(sess *Session) <-chan location.DeviceOutcome {
	sess.mu.Lock()
	sess.unlocked = true
	first := !sess.refreshed
	sess.refreshed = true
	sess.mu.Unlock()

	sess.Geocoder.SetCredential(m.conf.APIKey)
	if !first {
		return nil
	}
	return m.refresh(sess)
}

func (m *Manager) refresh(sess *Session) <-chan location.DeviceOutcome {
	if m.conf.Locator == nil {
		return nil
	}
	m.ctxMu.RLock()
	ctx := m.baseCtx
	m.ctxMu.RUnlock()
	return sess.Location.RequestDevice(ctx, m.conf.Locator)
}
