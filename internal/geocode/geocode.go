// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/wneessen/geosnap/internal/logger"
)

// Placeholder texts stored in place of an address. They double as message IDs for the
// translation catalog.
const (
	TextMissingCredential = "API key required"
	TextNotFound          = "No address found"
	TextServiceError      = "Address lookup failed"
)

// ErrNotFound is returned by a Geocoder when the service answered but knows no address for the
// coordinates.
var ErrNotFound = errors.New("no address found for coordinates")

// Address is the answer of a reverse geocoding provider.
type Address struct {
	DisplayName string
	Country     string
	Region      string
	City        string
	Street      string
}

// Geocoder is implemented by the reverse geocoding providers.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, lat, lon float64) (Address, error)
}

// Factory builds a Geocoder for the given API key.
type Factory func(apikey string) Geocoder

// Status tags the outcome of a resolution.
type Status int

const (
	StatusResolved Status = iota
	StatusMissingCredential
	StatusNotFound
	StatusServiceError
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusMissingCredential:
		return "missing_credential"
	case StatusNotFound:
		return "not_found"
	case StatusServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Client.Resolve. Err is only set for StatusServiceError and is
// meant for logging.
type Result struct {
	Status   Status
	Address  string
	Provider string
	Err      error
}

// Text returns the resolved address or the placeholder for the status.
func (r Result) Text() string {
	switch r.Status {
	case StatusResolved:
		return r.Address
	case StatusMissingCredential:
		return TextMissingCredential
	case StatusNotFound:
		return TextNotFound
	default:
		return TextServiceError
	}
}

// Client resolves coordinates to address text. It holds at most one credential and never
// returns a Go error to its callers.
type Client struct {
	mu      sync.RWMutex
	factory Factory
	coder   Geocoder
	logger  *logger.Logger
}

// NewClient returns a Client without credential.
func NewClient(factory Factory, log *logger.Logger) *Client {
	return &Client{factory: factory, logger: log}
}

// SetCredential installs the API key. An empty key removes the credential.
func (c *Client) SetCredential(apikey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if apikey == "" || c.factory == nil {
		c.coder = nil
		return
	}
	c.coder = c.factory(apikey)
}

// HasCredential reports whether a credential is installed.
func (c *Client) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.coder != nil
}

// Resolve performs exactly one reverse geocoding request. Without credential no request is made.
func (c *Client) Resolve(ctx context.Context, lat, lon float64) Result {
	c.mu.RLock()
	coder := c.coder
	c.mu.RUnlock()
	if coder == nil {
		return Result{Status: StatusMissingCredential}
	}

	addr, err := coder.Reverse(ctx, lat, lon)
	switch {
	case errors.Is(err, ErrNotFound):
		return Result{Status: StatusNotFound, Provider: coder.Name()}
	case err != nil:
		c.logger.Warn("reverse geocoding failed", slog.String("provider", coder.Name()),
			slog.Float64("lat", lat), slog.Float64("lon", lon), logger.Err(err))
		return Result{Status: StatusServiceError, Provider: coder.Name(), Err: err}
	case addr.DisplayName == "":
		return Result{Status: StatusNotFound, Provider: coder.Name()}
	}
	return Result{Status: StatusResolved, Address: addr.DisplayName, Provider: coder.Name()}
}
