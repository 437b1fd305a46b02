// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/geosnap/internal/export"
	"github.com/wneessen/geosnap/internal/form"
)

const (
	configEnv = "GEOSNAP"

	DefaultLatitude  = 37.5665
	DefaultLongitude = 126.9780
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	// Allowed values: text, json
	LogFormat string `fig:"logformat" default:"text"`

	Server struct {
		Address           string        `fig:"address" default:"127.0.0.1:8080"`
		ReadHeaderTimeout time.Duration `fig:"read_header_timeout" default:"10s"`
		ShutdownTimeout   time.Duration `fig:"shutdown_timeout" default:"10s"`
		// Maximum accepted request body for record submissions, in bytes
		MaxUploadSize int64 `fig:"max_upload_size" default:"10485760"`
	} `fig:"server"`

	Session struct {
		IdleTimeout   time.Duration `fig:"idle_timeout" default:"2h"`
		SweepInterval time.Duration `fig:"sweep_interval" default:"5m"`
	} `fig:"session"`

	Access struct {
		// Shared secret that unlocks the geocoder API key for a session. Empty disables the gate.
		Secret string `fig:"secret"`
	} `fig:"access"`

	GeoCoder struct {
		// Allowed values: kakao, opencage
		Provider string `fig:"provider" default:"kakao"`
		APIKey   string `fig:"apikey"`
	} `fig:"geocoder"`

	GeoLocation struct {
		DefaultLatitude  float64       `fig:"default_latitude"`
		DefaultLongitude float64       `fig:"default_longitude"`
		LookupTimeout    time.Duration `fig:"lookup_timeout" default:"5s"`

		GeoLocationFile        string `fig:"file"`
		GPSDHost               string `fig:"gpsd_host" default:"localhost"`
		GPSDPort               string `fig:"gpsd_port" default:"2947"`
		DisableGeolocationFile bool   `fig:"disable_geolocation_file"`
		DisableGPSD            bool   `fig:"disable_gpsd"`

		// IP based lookups locate the host running geosnap, not the user, so they are opt-in
		EnableGeoAPI bool `fig:"enable_geoapi"`
		EnableGeoIP  bool `fig:"enable_geoip"`
	} `fig:"geolocation"`

	Form struct {
		Fields []string `fig:"fields" default:"[building_condition,land_use,remarks]"`
	} `fig:"form"`

	Export struct {
		FilePrefix string `fig:"file_prefix"`
	} `fig:"export"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	switch strings.ToLower(c.GeoCoder.Provider) {
	case "kakao", "opencage":
	default:
		return fmt.Errorf("unsupported geocoder provider: %s", c.GeoCoder.Provider)
	}

	// Zero coordinates mean "not configured"; fig cannot express float defaults reliably
	if c.GeoLocation.DefaultLatitude == 0 && c.GeoLocation.DefaultLongitude == 0 {
		c.GeoLocation.DefaultLatitude = DefaultLatitude
		c.GeoLocation.DefaultLongitude = DefaultLongitude
	}
	if c.GeoLocation.DefaultLatitude < -90 || c.GeoLocation.DefaultLatitude > 90 ||
		c.GeoLocation.DefaultLongitude < -180 || c.GeoLocation.DefaultLongitude > 180 {
		return fmt.Errorf("invalid default location: %f, %f", c.GeoLocation.DefaultLatitude,
			c.GeoLocation.DefaultLongitude)
	}
	if c.GeoLocation.LookupTimeout <= 0 {
		return fmt.Errorf("invalid geolocation lookup timeout: %s", c.GeoLocation.LookupTimeout)
	}
	if c.GeoLocation.GeoLocationFile == "" {
		home, _ := os.UserHomeDir()
		c.GeoLocation.GeoLocationFile = filepath.Join(home, ".config", "geosnap", "geolocation")
	}

	if c.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("invalid max upload size: %d", c.Server.MaxUploadSize)
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("invalid session idle timeout: %s", c.Session.IdleTimeout)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("invalid session sweep interval: %s", c.Session.SweepInterval)
	}

	fields, err := form.NormalizeFieldNames(c.Form.Fields)
	if err != nil {
		return fmt.Errorf("invalid form fields: %w", err)
	}
	c.Form.Fields = fields
	if c.Export.FilePrefix == "" {
		c.Export.FilePrefix = export.DefaultFilePrefix
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
