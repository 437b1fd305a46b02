// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/geosnap/internal/location"
)

const name = "gpsd"

// ErrNoFix is returned when gpsd reports a position without at least a 2D fix.
var ErrNoFix = errors.New("gpsd has no 2D fix")

// Locator asks a local gpsd daemon for the current position.
type Locator struct {
	client *Client
}

func New(host, port string) *Locator {
	return &Locator{client: NewClient(host, port)}
}

func (l *Locator) Name() string {
	return name
}

func (l *Locator) Locate(ctx context.Context) (location.Result, error) {
	fix, err := l.client.Poll(ctx)
	if err != nil {
		return location.Result{}, fmt.Errorf("failed to poll gpsd at %s: %w", l.client.Addr, err)
	}
	if !fix.Has2DFix() {
		return location.Result{}, ErrNoFix
	}
	return location.Result{
		Coordinate: location.Coordinate{Lat: fix.Lat, Lon: fix.Lon, Acc: fix.Acc},
		Source:     name,
		At:         time.Now(),
	}, nil
}
