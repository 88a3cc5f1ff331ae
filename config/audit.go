// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFilePermissions = 0o666

// setupAudit points the global logger at the configured outputs and applies
// the configured level.
func (cfg *ServerConfig) setupAudit() {
	level := zerolog.DebugLevel

	if !cfg.Development.InDevelopment {
		parsed, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil || parsed == zerolog.NoLevel {
			parsed = zerolog.InfoLevel
		}

		level = parsed
	}

	zerolog.SetGlobalLevel(level)

	writers := []io.Writer{}

	for _, output := range cfg.Log.Outputs {
		var file *os.File

		switch output {
		case "/dev/stdout":
			file = os.Stdout
		case "/dev/stderr":
			file = os.Stderr
		default:
			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec:G302,G304
			if err != nil {
				// The logger is not set up yet.
				fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)

				continue
			}

			file = f
		}

		if cfg.Log.Format == "json" {
			writers = append(writers, file)
		} else {
			writers = append(writers, ConsoleWriter(file))
		}
	}

	if len(writers) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
}

// ConsoleWriter returns a writer for zerolog that has NoColor:!isatty(f).
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd())

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			// pretty print request logs
			if sys, ok := m["sys"]; ok && sys == "http" {
				m["message"] = fmt.Sprintf("%s %-6s %s", m["status_code"], m["method"], m["url"])
				delete(m, "sys")
				delete(m, "method")
				delete(m, "status_code")
				delete(m, "url")
				delete(m, "request_id")
			}

			return nil
		}
	}

	return w
}
