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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/zaparoo-snap/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-snap/pkg/cli"
	"github.com/ZaparooProject/zaparoo-snap/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	if err := flags.Pre(flag.CommandLine, os.Args[1:]); err != nil {
		return err
	}

	var writers []io.Writer
	if !*flags.Daemon {
		writers = append(writers, os.Stderr)
	}

	cfg, err := cli.Setup(config.BaseDefaults, writers)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	exit, err := flags.Post(cfg, nil, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		return err
	}
	if exit {
		return nil
	}

	return cli.RunApp(cfg)
}
