// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wneessen/geosnap/internal/http"
	"github.com/wneessen/geosnap/internal/location"
)

const (
	APIEndpoint   = "https://geoapi.info/api/geo"
	LookupTimeout = time.Second * 5
	name          = "geoapi"
)

type Locator struct {
	http     *http.Client
	endpoint string
}

type APIResult struct {
	IP       string `json:"ip"`
	Location struct {
		CountryCode string `json:"country,omitempty"`
		Country     string `json:"countryName,omitempty"`
		Region      string `json:"region,omitempty"`
		City        string `json:"city,omitempty"`
		ZipCode     string `json:"postalCode,omitempty"`
		TimeZone    string `json:"timezone"`
		Coordinates struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
}

func New(client *http.Client) (*Locator, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	return &Locator{http: client, endpoint: APIEndpoint}, nil
}

func (l *Locator) Name() string {
	return name
}

// Locate resolves the public IP address of the host to a coordinate.
func (l *Locator) Locate(ctx context.Context) (location.Result, error) {
	ctxHttp, cancelHttp := context.WithTimeout(ctx, LookupTimeout)
	defer cancelHttp()

	result := new(APIResult)
	if _, err := l.http.Get(ctxHttp, l.endpoint, result, nil, nil); err != nil {
		return location.Result{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	lat, err := strconv.ParseFloat(result.Location.Coordinates.Latitude, 64)
	if err != nil {
		return location.Result{}, fmt.Errorf("failed to parse latitude from API response: %w", err)
	}
	lon, err := strconv.ParseFloat(result.Location.Coordinates.Longitude, 64)
	if err != nil {
		return location.Result{}, fmt.Errorf("failed to parse longitude from API response: %w", err)
	}
	acc := location.AccuracyFromPlace(result.Location.CountryCode, result.Location.Region,
		result.Location.City, result.Location.ZipCode)

	return location.Result{
		Coordinate: location.Coordinate{
			Lat: location.Truncate(lat, location.TruncPrecision),
			Lon: location.Truncate(lon, location.TruncPrecision),
			Acc: acc,
		},
		Source: name,
		At:     time.Now(),
	}, nil
}
