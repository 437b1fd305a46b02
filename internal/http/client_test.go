// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/testhelper"
)

type testType struct {
	String string  `json:"string"`
	Int    int     `json:"int"`
	Float  float64 `json:"float"`
	Bool   bool    `json:"bool"`
}

const testFile = "../../testdata/testtype.json"

func TestNew(t *testing.T) {
	client := New(logger.New(slog.LevelInfo))
	if client == nil {
		t.Fatal("expected client to be non-nil")
	}
	if client.Timeout != DefaultTimeout {
		t.Errorf("expected client timeout to be %s, got %s", DefaultTimeout, client.Timeout)
	}
}

func TestClient_Get(t *testing.T) {
	t.Run("getting and serializing JSON should work", func(t *testing.T) {
		var gotReq *stdhttp.Request
		respond := testhelper.FileResponder(t, 200, testFile)
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotReq = req
			return respond(req)
		}

		client := New(logger.New(slog.LevelInfo))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}
		query := map[string][]string{"x": {"126.978"}, "y": {"37.5665"}}
		headers := map[string]string{"Authorization": "KakaoAK test"}

		target := new(testType)
		status, err := client.Get(t.Context(), "https://example.com/geo", target, query, headers)
		if err != nil {
			t.Fatalf("failed to get JSON response: %s", err)
		}
		if status != 200 {
			t.Errorf("expected status code 200, got %d", status)
		}
		if target.String != "test" || target.Int != 123 || target.Float != 123.456 || !target.Bool {
			t.Errorf("unexpected decoded target: %+v", target)
		}
		if gotReq.URL.Query().Get("x") != "126.978" || gotReq.URL.Query().Get("y") != "37.5665" {
			t.Errorf("expected query parameters to be sent, got %q", gotReq.URL.RawQuery)
		}
		if gotReq.Header.Get("Authorization") != "KakaoAK test" {
			t.Errorf("expected authorization header to be sent, got %q", gotReq.Header.Get("Authorization"))
		}
		if gotReq.Header.Get("User-Agent") != UserAgent {
			t.Errorf("expected user agent %q, got %q", UserAgent, gotReq.Header.Get("User-Agent"))
		}
	})
	t.Run("non-2xx responses should fail with the status code", func(t *testing.T) {
		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{
			Fn: testhelper.StringResponder(401, `{"errorType":"AccessDeniedError","message":"cannot find appkey"}`),
		}
		target := new(testType)
		status, err := client.Get(t.Context(), "https://example.com", target, nil, nil)
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
		}
		if status != 401 {
			t.Errorf("expected status code 401, got %d", status)
		}
	})
	t.Run("malformed JSON should fail", func(t *testing.T) {
		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{Fn: testhelper.StringResponder(200, `{"string":`)}
		target := new(testType)
		_, err := client.Get(t.Context(), "https://example.com", target, nil, nil)
		if err == nil {
			t.Fatal("expected get to fail")
		}
		if !strings.Contains(err.Error(), "failed to decode JSON") {
			t.Errorf("expected decode error, got %s", err)
		}
	})
	t.Run("unmarshalling into non-pointer should fail", func(t *testing.T) {
		client := New(logger.New(slog.LevelInfo))
		var target testType
		_, err := client.Get(t.Context(), "https://example.com", target, nil, nil)
		if !errors.Is(err, ErrNonPointerTarget) {
			t.Errorf("expected error to be %s, got %s", ErrNonPointerTarget, err)
		}
	})
	t.Run("parsing an invalid url should fail", func(t *testing.T) {
		client := New(logger.New(slog.LevelInfo))
		target := new(testType)
		_, err := client.Get(t.Context(), "http://example.com/xyz%", target, nil, nil)
		if err == nil {
			t.Fatal("expected get to fail")
		}
		if !strings.Contains(err.Error(), "failed to parse URL") {
			t.Errorf("expected error to contain 'failed to parse URL', got %s", err)
		}
	})
	t.Run("get request fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}
		client := New(logger.New(slog.LevelInfo))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		target := new(testType)
		_, err := client.Get(t.Context(), "https://example.com", target, nil, nil)
		if err == nil {
			t.Fatal("expected get request to fail")
		}
	})
	t.Run("failing body close is logged but not returned", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 200,
				Body:       &failCloser{Reader: strings.NewReader(`{"string":"ok"}`)},
				Header:     make(stdhttp.Header),
			}, nil
		}
		buf := &strings.Builder{}
		client := New(logger.NewLogger(slog.LevelInfo, buf))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		target := new(testType)
		if _, err := client.Get(t.Context(), "https://example.com", target, nil, nil); err != nil {
			t.Fatalf("expected get to succeed, got %s", err)
		}
		if !strings.Contains(buf.String(), "failed to close HTTP response body") {
			t.Errorf("expected close failure to be logged, got %q", buf.String())
		}
	})
}

func TestClient_GetWithTimeout(t *testing.T) {
	t.Run("get request fails on context timeout", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}
		client := New(logger.New(slog.LevelInfo))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		target := new(testType)
		_, err := client.GetWithTimeout(t.Context(), "https://example.com", target, nil, nil, time.Millisecond*10)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected error to be %s, got %v", context.DeadlineExceeded, err)
		}
	})
	t.Run("get request against online API", func(t *testing.T) {
		testhelper.PerformIntegrationTests(t)
		client := New(logger.New(slog.LevelInfo))
		target := make(map[string]any)
		if _, err := client.GetWithTimeout(t.Context(), testhelper.TestOnlineAPIURL, &target, nil, nil,
			time.Second*5); err != nil {
			t.Fatalf("failed to query online API: %s", err)
		}
	})
}

type failCloser struct {
	io.Reader
}

func (failCloser) Close() error { return errors.New("failed to close") }
