// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/geosnap/internal/location"
)

const (
	name = "geolocation_file"
)

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// Locator reads a "lat, lon" line from a file. Empty lines, comments starting with # and
// unparsable lines are skipped; the first valid line wins.
type Locator struct {
	path string
}

func New(path string) *Locator {
	return &Locator{path: path}
}

func (l *Locator) Name() string {
	return name
}

func (l *Locator) Locate(ctx context.Context) (location.Result, error) {
	if err := ctx.Err(); err != nil {
		return location.Result{}, err
	}
	lat, lon, err := l.readFile()
	if err != nil {
		return location.Result{}, err
	}
	return location.Result{
		Coordinate: location.Coordinate{Lat: lat, Lon: lon, Acc: location.AccuracyZip},
		Source:     name,
		At:         time.Now(),
	}, nil
}

// readFile reads geolocation data from the file at the configured path.
func (l *Locator) readFile() (lat, lon float64, err error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read geolocation file %q: %w", l.path, err)
	}
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coords := strings.Split(line, ",")
		if len(coords) != 2 {
			continue
		}
		lat, err = strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			continue
		}
		lon, err = strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			continue
		}
		if !(location.Coordinate{Lat: lat, Lon: lon}).Valid() {
			continue
		}
		return lat, lon, nil
	}
	return 0, 0, ErrNoCoordinates
}
