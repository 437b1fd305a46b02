// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/geosnap/internal/http"
	"github.com/wneessen/geosnap/internal/location"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

type Locator struct {
	http *http.Client
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// ErrNoCoordinates is returned when the service knows the IP but has no position for it.
var ErrNoCoordinates = errors.New("geoip response carries no coordinates")

func New(client *http.Client) *Locator {
	return &Locator{http: client}
}

func (l *Locator) Name() string {
	return name
}

func (l *Locator) Locate(ctx context.Context) (location.Result, error) {
	ctxHttp, cancelHttp := context.WithTimeout(ctx, LookupTimeout)
	defer cancelHttp()

	result := new(APIResult)
	if _, err := l.http.Get(ctxHttp, APIEndpoint, result, nil, nil); err != nil {
		return location.Result{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	if result.Latitude == 0 && result.Longitude == 0 && result.CountryCode == "" {
		return location.Result{}, ErrNoCoordinates
	}

	return location.Result{
		Coordinate: location.Coordinate{
			Lat: location.Truncate(result.Latitude, location.TruncPrecision),
			Lon: location.Truncate(result.Longitude, location.TruncPrecision),
			Acc: location.AccuracyFromPlace(result.CountryCode, result.RegionCode, result.City, result.ZipCode),
		},
		Source: name,
		At:     time.Now(),
	}, nil
}
