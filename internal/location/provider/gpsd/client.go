// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"
)

const (
	fallbackAccuracy3DFix = 10  // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25  // worse than 3D, but still accurate enough
	fallbackAccuracyNoFix = 1e6 // effectively unusable
	watchTimeout          = time.Second * 2
)

// ErrNoTPV is returned when gpsd closed the stream without reporting a position.
var ErrNoTPV = errors.New("no TPV response received from gpsd")

// Client speaks just enough of the gpsd JSON protocol to read a single TPV report.
type Client struct {
	Addr string
}

// Fix represents a single GPS fix from gpsd.
type Fix struct {
	Lat  float64
	Lon  float64
	Alt  float64
	Acc  float64
	Mode int
}

// tpvReport matches the subset of a gpsd TPV report we care about.
type tpvReport struct {
	Class string  `json:"class"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Alt   float64 `json:"alt"`
	Mode  int     `json:"mode"`
	Epx   float64 `json:"epx"`
	Epy   float64 `json:"epy"`
	Eph   float64 `json:"eph"`
}

func NewClient(host, port string) *Client {
	return &Client{
		Addr: net.JoinHostPort(host, port),
	}
}

// Poll connects to gpsd, enables watch mode and returns the first TPV report. The connection is
// closed before returning.
func (c *Client) Poll(ctx context.Context) (Fix, error) {
	var zero Fix

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return zero, fmt.Errorf("failed to dial gpsd: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(watchTimeout))
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err = fmt.Fprint(conn, `?WATCH={"enable":true,"json":true}`+"\n"); err != nil {
		return zero, fmt.Errorf("failed to write WATCH command: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if err = ctx.Err(); err != nil {
			return zero, err
		}

		var report tpvReport
		if err = json.Unmarshal(scanner.Bytes(), &report); err != nil {
			continue
		}
		if report.Class != "TPV" {
			continue
		}

		return Fix{
			Lat:  report.Lat,
			Lon:  report.Lon,
			Alt:  report.Alt,
			Acc:  horizontalAccuracyMeters(report),
			Mode: report.Mode,
		}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if err = scanner.Err(); err != nil {
		return zero, fmt.Errorf("failed to scan gpsd response: %w", err)
	}
	return zero, ErrNoTPV
}

// Has2DFix reports whether the fix has at least a 2D fix.
func (f Fix) Has2DFix() bool {
	return f.Mode >= 2
}

func horizontalAccuracyMeters(tpv tpvReport) float64 {
	switch {
	case tpv.Eph > 0:
		return tpv.Eph
	case tpv.Epx > 0 && tpv.Epy > 0:
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	switch tpv.Mode {
	case 3:
		return fallbackAccuracy3DFix
	case 2:
		return fallbackAccuracy2DFix
	default:
		return fallbackAccuracyNoFix
	}
}
