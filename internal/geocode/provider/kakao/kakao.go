// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package kakao

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wneessen/geosnap/internal/geocode"
	"github.com/wneessen/geosnap/internal/http"
)

const (
	APIEndpoint = "https://dapi.kakao.com/v2/local/geo/coord2address.json"
	APITimeout  = time.Second * 10
	name        = "kakao"
)

type Kakao struct {
	apikey string
	http   *http.Client
}

type Response struct {
	Meta      Meta       `json:"meta"`
	Documents []Document `json:"documents"`
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type Document struct {
	Address     *Address     `json:"address"`
	RoadAddress *RoadAddress `json:"road_address"`
}

type Address struct {
	AddressName string `json:"address_name"`
	Region1     string `json:"region_1depth_name"`
	Region2     string `json:"region_2depth_name"`
	Region3     string `json:"region_3depth_name"`
	MainNo      string `json:"main_address_no"`
	SubNo       string `json:"sub_address_no"`
}

type RoadAddress struct {
	AddressName string `json:"address_name"`
	Region1     string `json:"region_1depth_name"`
	Region2     string `json:"region_2depth_name"`
	RoadName    string `json:"road_name"`
	ZoneNo      string `json:"zone_no"`
}

func New(client *http.Client, apikey string) *Kakao {
	return &Kakao{
		apikey: apikey,
		http:   client,
	}
}

func (k *Kakao) Name() string {
	return name
}

// Reverse looks up the lot-number address of the first document. The road address is only used
// when the lot-number address is absent.
func (k *Kakao) Reverse(ctx context.Context, lat, lon float64) (geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("x", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	headers := map[string]string{"Authorization": "KakaoAK " + k.apikey}

	if _, err := k.http.GetWithTimeout(ctx, APIEndpoint, &response, query, headers, APITimeout); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from Kakao API: %w", err)
	}
	if len(response.Documents) == 0 {
		return geocode.Address{}, geocode.ErrNotFound
	}

	doc := response.Documents[0]
	switch {
	case doc.Address != nil && doc.Address.AddressName != "":
		return geocode.Address{
			DisplayName: doc.Address.AddressName,
			Country:     "KR",
			Region:      doc.Address.Region1,
			City:        doc.Address.Region2,
			Street:      doc.Address.Region3,
		}, nil
	case doc.RoadAddress != nil && doc.RoadAddress.AddressName != "":
		return geocode.Address{
			DisplayName: doc.RoadAddress.AddressName,
			Country:     "KR",
			Region:      doc.RoadAddress.Region1,
			City:        doc.RoadAddress.Region2,
			Street:      doc.RoadAddress.RoadName,
		}, nil
	default:
		return geocode.Address{}, geocode.ErrNotFound
	}
}
