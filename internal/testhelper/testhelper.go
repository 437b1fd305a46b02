// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper provides shared helpers for package tests.
package testhelper

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

// TestOnlineAPIURL is a public endpoint used by integration tests that need a real network round trip.
const TestOnlineAPIURL = "https://httpbin.org/json"

// MockRoundTripper replaces the transport of an HTTP client in tests.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// FileResponder returns a round trip function answering every request with the content of file.
func FileResponder(t *testing.T, status int, file string) func(*http.Request) (*http.Response, error) {
	t.Helper()
	return func(*http.Request) (*http.Response, error) {
		data, err := os.Open(file)
		if err != nil {
			t.Fatalf("failed to open JSON response file: %s", err)
		}
		return &http.Response{
			StatusCode: status,
			Body:       data,
			Header:     make(http.Header),
		}, nil
	}
}

// StringResponder returns a round trip function answering every request with body.
func StringResponder(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	}
}

// PerformIntegrationTests skips the calling test unless PERFORM_INTEGRATION_TEST is set to true.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if val := os.Getenv("PERFORM_INTEGRATION_TEST"); !strings.EqualFold(val, "true") {
		t.Skip("skipping integration test")
	}
}
