// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/wneessen/geosnap/internal/logger"
)

type fakeCoder struct {
	calls int
	addr  Address
	err   error
}

func (f *fakeCoder) Name() string { return "fake" }

func (f *fakeCoder) Reverse(context.Context, float64, float64) (Address, error) {
	f.calls++
	return f.addr, f.err
}

func testClient(t *testing.T, coder *fakeCoder) *Client {
	t.Helper()
	factory := func(string) Geocoder { return coder }
	return NewClient(factory, logger.NewLogger(slog.LevelError, io.Discard))
}


func TestClient_Resolve(t *testing.T) {
	t.Run("missing credential yields the placeholder regardless of coordinates", func(t *testing.T) {
		coder := &fakeCoder{addr: Address{DisplayName: "somewhere"}}
		client := testClient(t, coder)
		coords := [][2]float64{{37.5665, 126.9780}, {0, 0}, {-90, 180}, {52.5, 13.4}}
		for _, c := range coords {
			res := client.Resolve(t.Context(), c[0], c[1])
			if res.Status != StatusMissingCredential {
				t.Errorf("expected status %s, got %s", StatusMissingCredential, res.Status)
			}
			if res.Text() != TextMissingCredential {
				t.Errorf("expected text %q, got %q", TextMissingCredential, res.Text())
			}
		}
		if coder.calls != 0 {
			t.Errorf("expected no provider calls, got %d", coder.calls)
		}
	})
	t.Run("resolved address is returned", func(t *testing.T) {
		coder := &fakeCoder{addr: Address{DisplayName: "서울 중구 태평로1가 31"}}
		client := testClient(t, coder)
		client.SetCredential("key")
		res := client.Resolve(t.Context(), 37.5665, 126.9780)
		if res.Status != StatusResolved {
			t.Fatalf("expected status %s, got %s", StatusResolved, res.Status)
		}
		if res.Text() != "서울 중구 태평로1가 31" {
			t.Errorf("unexpected address: %q", res.Text())
		}
		if res.Provider != "fake" {
			t.Errorf("expected provider fake, got %q", res.Provider)
		}
		if coder.calls != 1 {
			t.Errorf("expected exactly one provider call, got %d", coder.calls)
		}
	})
	t.Run("no cache between calls", func(t *testing.T) {
		coder := &fakeCoder{addr: Address{DisplayName: "x"}}
		client := testClient(t, coder)
		client.SetCredential("key")
		client.Resolve(t.Context(), 1, 1)
		client.Resolve(t.Context(), 1, 1)
		if coder.calls != 2 {
			t.Errorf("expected two provider calls, got %d", coder.calls)
		}
	})
	t.Run("empty candidate list yields not found", func(t *testing.T) {
		client := testClient(t, &fakeCoder{err: ErrNotFound})
		client.SetCredential("key")
		res := client.Resolve(t.Context(), 0, 0)
		if res.Status != StatusNotFound || res.Text() != TextNotFound {
			t.Errorf("expected not found, got %s/%q", res.Status, res.Text())
		}
	})
	t.Run("empty display name yields not found", func(t *testing.T) {
		client := testClient(t, &fakeCoder{})
		client.SetCredential("key")
		if res := client.Resolve(t.Context(), 0, 0); res.Status != StatusNotFound {
			t.Errorf("expected not found, got %s", res.Status)
		}
	})
	t.Run("provider errors yield a service error", func(t *testing.T) {
		wantErr := errors.New("boom")
		client := testClient(t, &fakeCoder{err: wantErr})
		client.SetCredential("key")
		res := client.Resolve(t.Context(), 0, 0)
		if res.Status != StatusServiceError {
			t.Fatalf("expected service error, got %s", res.Status)
		}
		if res.Text() != TextServiceError {
			t.Errorf("expected text %q, got %q", TextServiceError, res.Text())
		}
		if !errors.Is(res.Err, wantErr) {
			t.Errorf("expected underlying error to be kept, got %v", res.Err)
		}
	})
}

func TestClient_SetCredential(t *testing.T) {
	client := testClient(t, &fakeCoder{})
	if client.HasCredential() {
		t.Fatal("expected no credential on a new client")
	}
	client.SetCredential("key")
	if !client.HasCredential() {
		t.Fatal("expected credential after SetCredential")
	}
	client.SetCredential("")
	if client.HasCredential() {
		t.Fatal("expected empty key to clear the credential")
	}
	t.Run("nil factory never installs a credential", func(t *testing.T) {
		c := NewClient(nil, logger.NewLogger(slog.LevelError, io.Discard))
		c.SetCredential("key")
		if c.HasCredential() {
			t.Error("expected no credential without factory")
		}
	})
}

func TestStatus_String(t *testing.T) {
	tests := map[Status]string{
		StatusResolved:          "resolved",
		StatusMissingCredential: "missing_credential",
		StatusNotFound:          "not_found",
		StatusServiceError:      "service_error",
		Status(42):              "unknown",
	}
	for status, want := range tests {
		if status.String() != want {
			t.Errorf("expected %q, got %q", want, status.String())
		}
	}
}
