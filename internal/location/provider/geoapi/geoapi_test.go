// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoapi

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"testing"

	"github.com/wneessen/geosnap/internal/http"
	"github.com/wneessen/geosnap/internal/location"
	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/testhelper"
)

const testFile = "../../../../testdata/geoapi.json"

func TestNew(t *testing.T) {
	t.Run("new GeoAPI locator succeeds", func(t *testing.T) {
		loc, err := New(http.New(logger.NewLogger(slog.LevelError, io.Discard)))
		if err != nil {
			t.Fatalf("failed to create GeoAPI locator: %s", err)
		}
		if loc.Name() != name {
			t.Errorf("expected locator name to be %s, got %s", name, loc.Name())
		}
	})
	t.Run("GeoAPI without http client fails", func(t *testing.T) {
		loc, err := New(nil)
		if err == nil {
			t.Fatal("expected locator creation to fail")
		}
		if loc != nil {
			t.Fatal("expected locator to be nil")
		}
	})
}

func TestLocator_Locate(t *testing.T) {
	t.Run("lookup succeeds", func(t *testing.T) {
		loc := testLocator(t, testhelper.FileResponder(t, 200, testFile))
		res, err := loc.Locate(t.Context())
		if err != nil {
			t.Fatalf("lookup failed: %s", err)
		}
		if res.Lat != 37.5665 || res.Lon != 126.9779 {
			t.Errorf("expected truncated coordinates 37.5665, 126.9779, got %f, %f", res.Lat, res.Lon)
		}
		if res.Acc != location.AccuracyCity {
			t.Errorf("expected city accuracy, got %f", res.Acc)
		}
		if res.Source != name {
			t.Errorf("expected source %q, got %q", name, res.Source)
		}
	})
	t.Run("unparsable latitude fails", func(t *testing.T) {
		body := `{"location":{"coordinates":{"latitude":"north","longitude":"1.0"}}}`
		loc := testLocator(t, testhelper.StringResponder(200, body))
		if _, err := loc.Locate(t.Context()); err == nil {
			t.Fatal("expected lookup to fail")
		}
	})
	t.Run("unparsable longitude fails", func(t *testing.T) {
		body := `{"location":{"coordinates":{"latitude":"1.0","longitude":""}}}`
		loc := testLocator(t, testhelper.StringResponder(200, body))
		if _, err := loc.Locate(t.Context()); err == nil {
			t.Fatal("expected lookup to fail")
		}
	})
	t.Run("HTTP failure fails", func(t *testing.T) {
		loc := testLocator(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := loc.Locate(t.Context()); err == nil {
			t.Fatal("expected lookup to fail")
		}
	})
}

func TestLocator_Locate_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	loc, err := New(http.New(logger.NewLogger(slog.LevelDebug, os.Stderr)))
	if err != nil {
		t.Fatal(err)
	}
	res, err := loc.Locate(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid() {
		t.Errorf("expected valid coordinate, got %+v", res.Coordinate)
	}
}

func testLocator(t *testing.T, fn func(*stdhttp.Request) (*stdhttp.Response, error)) *Locator {
	t.Helper()
	client := http.New(logger.NewLogger(slog.LevelError, io.Discard))
	client.Transport = testhelper.MockRoundTripper{Fn: fn}
	loc, err := New(client)
	if err != nil {
		t.Fatal(err)
	}
	return loc
}
