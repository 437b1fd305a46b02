// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

// Domain is the gettext domain of the embedded catalogs.
const Domain = "geosnap"

//go:embed locale/*
var locales embed.FS

// Tag resolves the configured locale. An empty string means the locale of the host.
func Tag(loc string) language.Tag {
	if loc != "" {
		return language.Make(loc)
	}
	tag, err := locale.Detect()
	if err != nil {
		return language.English // Unable to detect locale, fallback to English
	}
	return tag
}

// New returns a localizer for the given locale. Message IDs are English; languages without a
// catalog fall back to them.
func New(loc string) (*spreak.Localizer, error) {
	tag := Tag(loc)

	localeFS, err := fs.Sub(locales, "locale")
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDefaultDomain(Domain),
		spreak.WithDomainFs(Domain, localeFS),
		spreak.WithLanguage(tag),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}
