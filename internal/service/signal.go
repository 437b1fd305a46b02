// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// stdLibSignalSource is the production implementation.
type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleSignals runs operator commands: USR1 expires idle sessions right away, USR2 logs the
// number of live sessions.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				removed := s.manager.Sweep()
				s.logger.Info("idle session sweep requested", slog.Int("removed", removed))
			case syscall.SIGUSR2:
				s.logger.Info("currently live sessions", slog.Int("sessions", s.manager.Len()))
			}
		}
	}
}
