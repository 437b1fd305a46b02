// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build unix

// Package main implements the geosnap field observation service.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wneessen/geosnap/internal/config"
	"github.com/wneessen/geosnap/internal/i18n"
	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	log := logger.New(slog.LevelError)

	confPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	conf, err := loadConfig(*confPath)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	log = logger.NewWithFormat(conf.LogFormat, conf.LogLevel, os.Stderr)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	serv, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize geosnap service", logger.Err(err))
		os.Exit(1)
	}

	log.Info(t.Get("starting geosnap service"), slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if err = serv.Run(ctx); err != nil {
		log.Error(t.Get("failed to start geosnap service"), logger.Err(err))
		cancel()
		os.Exit(1)
	}
	log.Info(t.Get("shutting down geosnap service"))
}

// loadConfig reads the file given on the command line, then the one in the default location,
// and otherwise falls back to defaults and environment.
func loadConfig(confPath string) (*config.Config, error) {
	if confPath != "" {
		return config.NewFromFile(filepath.Dir(confPath), filepath.Base(confPath))
	}
	if path, file := findConfigFile(); path != "" && file != "" {
		return config.NewFromFile(path, file)
	}
	return config.New()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "geosnap", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
