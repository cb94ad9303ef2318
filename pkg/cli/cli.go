// Zaparoo Snap
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Snap.
//
// Zaparoo Snap is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Snap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Snap.  If not, see <http://www.gnu.org/licenses/>.

package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/zaparoo-snap/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-snap/pkg/config"
	"github.com/ZaparooProject/zaparoo-snap/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/ZaparooProject/zaparoo-snap/pkg/volume"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	Version  *bool
	Daemon   *bool
	List     *bool
	Status   *bool
	Enforce  *bool
	MaxFiles *int
}

// SetupFlags defines the command line flags on fs, usually
// flag.CommandLine.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run service in foreground, logging to file only",
		),
		List: fs.Bool(
			"list",
			false,
			"print a recursive listing of the card and exit",
		),
		Status: fs.Bool(
			"status",
			false,
			"print card status and exit",
		),
		Enforce: fs.Bool(
			"enforce",
			false,
			"run one retention pass and exit",
		),
		MaxFiles: fs.Int(
			"max-files",
			-1,
			"set max_files_to_keep in the config (0 disables retention)",
		),
	}
}

// Pre parses args and handles flags that need no config or logging.
func (f *Flags) Pre(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Printf("Zaparoo Snap v%s\n", config.AppVersion)
		os.Exit(0)
	}
	return nil
}

// Post handles flags that need config. Returns true when the process
// should exit instead of starting the service.
func (f *Flags) Post(cfg *config.Instance, vol storage.Volume, out io.Writer) (bool, error) {
	if *f.MaxFiles >= 0 {
		cfg.SetMaxFilesToKeep(*f.MaxFiles)
		if err := cfg.Save(); err != nil {
			return true, fmt.Errorf("saving config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "max_files_to_keep set to %d\n", cfg.MaxFilesToKeep())
	}

	if !*f.List && !*f.Status && !*f.Enforce {
		return false, nil
	}

	if vol == nil {
		vol = volume.NewHost(cfg.StorageBaseDir(), cfg.StorageDevice())
	}
	store := storage.NewStore(vol, cfg.MaxFilesToKeep())

	if *f.Status {
		_, _ = fmt.Fprint(out, store.Status())
	}

	if *f.List {
		store.DebugList(zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			PartsOrder: []string{zerolog.MessageFieldName},
		}))
	}

	if *f.Enforce {
		report := store.Enforce()
		for _, p := range report.Removed {
			_, _ = fmt.Fprintf(out, "removed %s\n", p)
		}
		_, _ = fmt.Fprintf(out, "%d files, limit %d, removed %d\n",
			report.Files, report.Limit, len(report.Removed))
		if err := report.Err(); err != nil {
			return true, fmt.Errorf("retention: %w", err)
		}
	}

	return true, nil
}

// Setup creates the app directories, starts logging and loads the config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaultConfig config.Values, writers []io.Writer) (*config.Instance, error) {
	err := helpers.EnsureDirectories(helpers.ConfigDir(), helpers.DataDir())
	if err != nil {
		return nil, fmt.Errorf("creating directories: %w", err)
	}

	err = helpers.InitLogging(helpers.LogDir(), writers)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := telemetry.Init(telemetry.Options{
		Enabled:    cfg.ErrorReporting(),
		DSN:        cfg.ErrorReportingDSN(),
		DeviceID:   cfg.DeviceID(),
		AppVersion: config.AppVersion,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
