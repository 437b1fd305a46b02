// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wneessen/geosnap/internal/location"
)

const (
	testFile = "../../../../testdata/geolocation"
	testLat  = 37.5665
	testLon  = 126.978
)

func TestLocator_Name(t *testing.T) {
	if got := New(testFile).Name(); got != name {
		t.Errorf("expected locator name to be %s, got %s", name, got)
	}
}

func TestLocator_Locate(t *testing.T) {
	t.Run("read file succeeds", func(t *testing.T) {
		res, err := New(testFile).Locate(t.Context())
		if err != nil {
			t.Fatalf("failed to read file: %s", err)
		}
		if res.Lat != testLat || res.Lon != testLon {
			t.Errorf("expected %f, %f, got %f, %f", testLat, testLon, res.Lat, res.Lon)
		}
		if res.Acc != location.AccuracyZip {
			t.Errorf("expected accuracy to be %d, got %f", location.AccuracyZip, res.Acc)
		}
		if res.Source != name {
			t.Errorf("expected source %q, got %q", name, res.Source)
		}
	})
	t.Run("first valid line wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "geolocation")
		content := "garbage\n1, 2, 3\n35.1796,129.0756\n37.5665,126.978\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		res, err := New(path).Locate(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if res.Lat != 35.1796 || res.Lon != 129.0756 {
			t.Errorf("unexpected coordinates %f, %f", res.Lat, res.Lon)
		}
	})
	t.Run("read of non-existent file fails", func(t *testing.T) {
		_, err := New("non-existent.txt").Locate(t.Context())
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})
	t.Run("files without coordinates fail", func(t *testing.T) {
		for _, suffix := range []string{"_nocoord", "_brokenlat", "_brokenlon", "_outofrange"} {
			t.Run(suffix, func(t *testing.T) {
				_, err := New(testFile + suffix).Locate(t.Context())
				if !errors.Is(err, ErrNoCoordinates) {
					t.Errorf("expected error to be %s, got %v", ErrNoCoordinates, err)
				}
			})
		}
	})
	t.Run("cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := New(testFile).Locate(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
