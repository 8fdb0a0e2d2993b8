// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package commons

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ConfigureLog installs a tint handler as the default slog logger.
func ConfigureLog(level slog.Level) {
	ConfigureLogWithColor(level, true)
}

// ConfigureLogWithColor is ConfigureLog with explicit control over colors.
// Colors are always disabled when stdout is not a terminal.
func ConfigureLogWithColor(level slog.Level, color bool) {
	logOpts := new(tint.Options)
	logOpts.Level = level
	logOpts.AddSource = level <= slog.LevelDebug
	logOpts.NoColor = !color || !isatty.IsTerminal(os.Stdout.Fd())
	logOpts.TimeFormat = "[15:04:05.000]"
	handler := tint.NewHandler(os.Stdout, logOpts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
}
