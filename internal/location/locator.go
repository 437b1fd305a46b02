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

	"golang.org/x/sync/errgroup"

	"github.com/wneessen/geosnap/internal/logger"
)

const accuracyEpsilon = 1e-6

// ErrNoLocation is returned when none of the locators produced a usable position.
var ErrNoLocation = errors.New("no location available")

// Locator performs a one-shot lookup of the device position.
type Locator interface {
	Name() string
	Locate(ctx context.Context) (Result, error)
}

// Result is a single position reported by a Locator.
type Result struct {
	Coordinate
	Source string
	At     time.Time
}

// BetterThan reports whether r is more accurate than prev. Unknown accuracy always loses.
func (r Result) BetterThan(prev Result) bool {
	if prev.Source == "" {
		return true
	}
	if r.Acc <= 0 {
		return false
	}
	if prev.Acc <= 0 {
		return true
	}
	return r.Acc < prev.Acc-accuracyEpsilon
}

// Orchestrator queries several locators concurrently and keeps the most accurate answer.
type Orchestrator struct {
	Locators []Locator
	logger   *logger.Logger
}

// NewOrchestrator returns an Orchestrator for the given locators.
func NewOrchestrator(log *logger.Logger, locators ...Locator) *Orchestrator {
	return &Orchestrator{Locators: locators, logger: log}
}

func (o *Orchestrator) Name() string {
	return "orchestrator"
}

// Locate asks every locator once and returns the best result. Individual failures are logged
// and only surface as ErrNoLocation if no locator succeeded.
func (o *Orchestrator) Locate(ctx context.Context) (Result, error) {
	var (
		mu   sync.Mutex
		best Result
		errs []error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, loc := range o.Locators {
		group.Go(func() error {
			res, err := safeLocate(groupCtx, loc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", loc.Name(), err))
				o.logger.Debug("locator failed", slog.String("locator", loc.Name()), logger.Err(err))
				return nil
			}
			if !res.Valid() {
				errs = append(errs, fmt.Errorf("%s: invalid coordinate %f, %f", loc.Name(), res.Lat, res.Lon))
				return nil
			}
			if res.Source == "" {
				res.Source = loc.Name()
			}
			if res.BetterThan(best) {
				best = res
			}
			return nil
		})
	}
	_ = group.Wait()

	if best.Source == "" {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return Result{}, errors.Join(append([]error{ErrNoLocation}, errs...)...)
	}
	return best, nil
}

// safeLocate invokes the Locate method on a Locator and recovers from potential panics.
func safeLocate(ctx context.Context, loc Locator) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("locator panicked: %v", r)
		}
	}()
	return loc.Locate(ctx)
}
