// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service exposes the sessions of geosnap over a JSON HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	stdhttp "net/http"
	"os"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/vorlif/spreak"
	"github.com/vorlif/spreak/localize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/wneessen/geosnap/internal/config"
	"github.com/wneessen/geosnap/internal/http"
	"github.com/wneessen/geosnap/internal/i18n"
	"github.com/wneessen/geosnap/internal/location"
	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/presenter"
	"github.com/wneessen/geosnap/internal/session"
)

type Service struct {
	SignalSrc signalSource

	config    *config.Config
	logger    *logger.Logger
	clock     clockwork.Clock
	lang      language.Tag
	translate func(string) string
	manager   *session.Manager
	presenter *presenter.Presenter

	addrLock sync.RWMutex
	addr     net.Addr
}

// New wires the geocoder, the device locators and the session manager. A nil localizer leaves
// messages untranslated.
func New(conf *config.Config, log *logger.Logger, localizer *spreak.Localizer) (*Service, error) {
	return newService(conf, log, localizer, clockwork.NewRealClock(), nil)
}

func newService(conf *config.Config, log *logger.Logger, localizer *spreak.Localizer,
	clock clockwork.Clock, httpClient *http.Client,
) (*Service, error) {
	if conf == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.NewLogger(conf.LogLevel, io.Discard)
	}
	translate := func(s string) string { return s }
	if localizer != nil {
		translate = func(msgID string) string {
			return localizer.Get(localize.MsgID(msgID))
		}
	}
	lang := i18n.Tag(conf.Locale)
	if httpClient == nil {
		httpClient = http.New(log)
	}

	factory, err := selectGeocodeProvider(conf, httpClient, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode provider: %w", err)
	}
	locator, err := selectLocators(conf, httpClient, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create device locators: %w", err)
	}
	if locator == nil {
		log.Warn("all device locators are disabled, sessions start at the default location")
	}

	manager, err := session.NewManager(session.Config{
		Secret:          conf.Access.Secret,
		APIKey:          conf.GeoCoder.APIKey,
		GeocoderFactory: factory,
		Locator:         locator,
		DefaultLocation: location.Coordinate{
			Lat: conf.GeoLocation.DefaultLatitude,
			Lon: conf.GeoLocation.DefaultLongitude,
		},
		LookupTimeout: conf.GeoLocation.LookupTimeout,
		FieldNames:    conf.Form.Fields,
		IdleTimeout:   conf.Session.IdleTimeout,
		SweepInterval: conf.Session.SweepInterval,
		Clock:         clock,
		Translate:     translate,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	return &Service{
		SignalSrc: stdLibSignalSource{},
		config:    conf,
		logger:    log,
		clock:     clock,
		lang:      lang,
		translate: translate,
		manager:   manager,
		presenter: presenter.New(lang, translate),
	}, nil
}

// Run serves the API until ctx is canceled and then shuts the server down gracefully.
func (s *Service) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Address, err)
	}
	s.addrLock.Lock()
	s.addr = listener.Addr()
	s.addrLock.Unlock()

	if err = s.manager.Start(ctx); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to start session manager: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	defer s.SignalSrc.Stop(sigChan)
	go s.HandleSignals(ctx, sigChan)

	server := &stdhttp.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.Server.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("http server listening", slog.String("address", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	})

	err = group.Wait()
	if shutdownErr := s.manager.Shutdown(); shutdownErr != nil {
		s.logger.Error("failed to shut down session manager", logger.Err(shutdownErr))
	}
	return err
}

// Addr returns the address the server listens on, or nil before Run bound it.
func (s *Service) Addr() net.Addr {
	s.addrLock.RLock()
	defer s.addrLock.RUnlock()
	return s.addr
}
