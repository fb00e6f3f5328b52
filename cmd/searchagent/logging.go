package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
)

func newLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, errors.New("unknown log format %q", cfg.Format)
}

func setupLogging(cfg config.Log, w io.Writer) error {
	logger, err := newLogger(cfg, w)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
