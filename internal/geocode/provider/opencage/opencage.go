// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/geosnap/internal/geocode"
	"github.com/wneessen/geosnap/internal/http"
)

const (
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components Components `json:"components"`
	Formatted  string     `json:"formatted"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	CountryCode    string `json:"country_code"`
	Road           string `json:"road"`
	State          string `json:"state"`
	Province       string `json:"province"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

func New(client *http.Client, lang language.Tag, apikey string) *OpenCage {
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, lat, lon float64) (geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("limit", "1")
	query.Set("language", o.lang.String())

	if _, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if len(response.Results) == 0 {
		return geocode.Address{}, geocode.ErrNotFound
	}

	result := response.Results[0]
	address := geocode.Address{
		DisplayName: result.Formatted,
		Country:     result.Components.CountryCode,
		Region:      result.Components.State,
		City:        result.Components.NormalizedCity,
		Street:      result.Components.Road,
	}
	if address.Region == "" {
		address.Region = result.Components.Province
	}
	for _, c := range []string{result.Components.City, result.Components.Town, result.Components.Village} {
		if address.City == "" {
			address.City = c
		}
	}

	return address, nil
}
