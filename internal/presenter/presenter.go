// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter turns stored records into the views served to clients.
package presenter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/vorlif/humanize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/text/language"

	"github.com/wneessen/geosnap/internal/record"
)

// MsgPhotoUnavailable is the message ID shown in place of a photo that cannot be decoded.
const MsgPhotoUnavailable = "Unable to display photo: %s"

// RecordRow is the table view of a record. The photo itself is left out.
type RecordRow struct {
	Index       int            `json:"index"`
	UserID      string         `json:"user_id"`
	Timestamp   string         `json:"timestamp"`
	Coordinates string         `json:"coordinates"`
	Address     string         `json:"address"`
	Fields      []record.Field `json:"fields"`
	HasPhoto    bool           `json:"has_photo"`
}

// PhotoInfo describes the attached photo. Error is set instead of the image properties when the
// bytes do not decode.
type PhotoInfo struct {
	Bytes  int    `json:"bytes"`
	Size   string `json:"size"`
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RecordDetail is the full view of a single record.
type RecordDetail struct {
	RecordRow
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	AddressStatus string     `json:"address_status,omitempty"`
	Photo         *PhotoInfo `json:"photo,omitempty"`
}

type Presenter struct {
	humanizer *humanize.Humanizer
	translate func(string) string
}

// New returns a Presenter for the given language. translate maps message IDs to localized text
// and may be nil.
func New(lang language.Tag, translate func(string) string) *Presenter {
	if translate == nil {
		translate = func(s string) string { return s }
	}
	collection := humanize.MustNew()
	return &Presenter{
		humanizer: collection.CreateHumanizer(lang),
		translate: translate,
	}
}

// Rows builds the table view of all records in collection order.
func (p *Presenter) Rows(records []record.Record) []RecordRow {
	rows := make([]RecordRow, 0, len(records))
	for i, rec := range records {
		rows = append(rows, p.Row(i, rec))
	}
	return rows
}

// Row builds the table view of a single record.
func (p *Presenter) Row(index int, rec record.Record) RecordRow {
	row := RecordRow{
		Index:       index,
		UserID:      rec.UserID,
		Coordinates: rec.Coordinates.String(),
		Address:     rec.Address,
		Fields:      rec.Fields,
		HasPhoto:    rec.HasPhoto(),
	}
	if row.Fields == nil {
		row.Fields = []record.Field{}
	}
	if !rec.Timestamp.IsZero() {
		row.Timestamp = rec.Timestamp.Format(record.TimestampFormat)
	}
	return row
}

// Detail builds the detail view. A photo that fails to decode never hides the rest of the record.
func (p *Presenter) Detail(index int, rec record.Record) RecordDetail {
	detail := RecordDetail{
		RecordRow:     p.Row(index, rec),
		Latitude:      rec.Coordinates.Lat,
		Longitude:     rec.Coordinates.Lon,
		AddressStatus: rec.AddressStatus,
	}
	if rec.HasPhoto() {
		info := p.Photo(rec.Photo)
		detail.Photo = &info
	}
	return detail
}

// Photo inspects the photo bytes without decoding the full image.
func (p *Presenter) Photo(data []byte) PhotoInfo {
	info := PhotoInfo{
		Bytes: len(data),
		Size:  p.humanizer.FilesizeFormat(int64(len(data))),
	}
	conf, format, err := DecodePhoto(data)
	if err != nil {
		info.Error = fmt.Sprintf(p.translate(MsgPhotoUnavailable), err)
		return info
	}
	info.Format = format
	info.Width = conf.Width
	info.Height = conf.Height
	return info
}

// DecodePhoto reads the image header of data. PNG, JPEG, GIF, BMP, TIFF and WebP are recognized.
func DecodePhoto(data []byte) (image.Config, string, error) {
	if len(data) == 0 {
		return image.Config{}, "", image.ErrFormat
	}
	return image.DecodeConfig(bytes.NewReader(data))
}
