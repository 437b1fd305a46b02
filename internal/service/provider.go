// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/wneessen/geosnap/internal/config"
	"github.com/wneessen/geosnap/internal/geocode"
	"github.com/wneessen/geosnap/internal/geocode/provider/kakao"
	"github.com/wneessen/geosnap/internal/geocode/provider/opencage"
	"github.com/wneessen/geosnap/internal/http"
	"github.com/wneessen/geosnap/internal/location"
	"github.com/wneessen/geosnap/internal/location/provider/geoapi"
	"github.com/wneessen/geosnap/internal/location/provider/geoip"
	"github.com/wneessen/geosnap/internal/location/provider/geolocation_file"
	"github.com/wneessen/geosnap/internal/location/provider/gpsd"
	"github.com/wneessen/geosnap/internal/logger"
)

// selectLocators returns the device locators enabled in the configuration, wrapped in an
// orchestrator. A nil locator means device lookups are disabled and sessions keep the default
// location until the user picks one on the map.
func selectLocators(conf *config.Config, httpClient *http.Client, log *logger.Logger) (location.Locator, error) {
	var locators []location.Locator

	if !conf.GeoLocation.DisableGeolocationFile {
		locators = append(locators, geolocation_file.New(conf.GeoLocation.GeoLocationFile))
	}

	if !conf.GeoLocation.DisableGPSD {
		locators = append(locators, gpsd.New(conf.GeoLocation.GPSDHost, conf.GeoLocation.GPSDPort))
	}

	if conf.GeoLocation.EnableGeoIP {
		locators = append(locators, geoip.New(httpClient))
	}

	if conf.GeoLocation.EnableGeoAPI {
		gap, err := geoapi.New(httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create GeoAPI locator: %w", err)
		}
		locators = append(locators, gap)
	}

	if len(locators) == 0 {
		return nil, nil
	}
	return location.NewOrchestrator(log, locators...), nil
}

// selectGeocodeProvider returns a factory for the configured reverse geocoder. The API key is
// handed in per session once the access gate is passed.
func selectGeocodeProvider(conf *config.Config, httpClient *http.Client, lang language.Tag) (geocode.Factory, error) {
	switch strings.ToLower(conf.GeoCoder.Provider) {
	case "kakao":
		return func(apikey string) geocode.Geocoder {
			return kakao.New(httpClient, apikey)
		}, nil
	case "opencage":
		return func(apikey string) geocode.Geocoder {
			return opencage.New(httpClient, lang, apikey)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", conf.GeoCoder.Provider)
	}
}
