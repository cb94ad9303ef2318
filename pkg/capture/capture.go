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

// Package capture takes a photo with an external tool and saves it to the
// card's detected root.
package capture

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/config"
	"github.com/ZaparooProject/zaparoo-snap/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const timestampLayout = "20060102_150405"

var errNoCommand = errors.New("no capture command configured")

// Capturer takes one photo and returns the card path it was saved at.
type Capturer interface {
	CaptureAndSave(ctx context.Context) (string, error)
}

// PathMapper is implemented by volumes backed by the host filesystem, so
// the capture tool can be handed a real path.
type PathMapper interface {
	RealPath(p string) (string, error)
}

type Options struct {
	Command   string
	Prefix    string
	Extension string
	Args      []string
	Timeout   time.Duration
}

func OptionsFromConfig(cfg *config.Instance) Options {
	name, args := cfg.CaptureCommand()
	return Options{
		Command:   name,
		Args:      args,
		Prefix:    cfg.CapturePrefix(),
		Extension: cfg.CaptureExtension(),
		Timeout:   cfg.CaptureTimeout(),
	}
}

// CommandCapturer runs a capture tool such as fswebcam or libcamera-still.
// Every "{path}" in the arguments is replaced with the output path; if no
// argument has the placeholder the path is appended.
type CommandCapturer struct {
	store *storage.Store
	exec  command.Executor
	clock clockwork.Clock
	opts  Options
}

func NewCommandCapturer(
	store *storage.Store,
	exec command.Executor,
	clock clockwork.Clock,
	opts Options,
) *CommandCapturer {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultCaptureTimeout
	}
	if opts.Prefix == "" {
		opts.Prefix = config.DefaultCapturePrefix
	}
	if opts.Extension == "" {
		opts.Extension = config.DefaultCaptureExtension
	}
	return &CommandCapturer{
		store: store,
		exec:  exec,
		clock: clock,
		opts:  opts,
	}
}

// FileName builds a capture file name from t. Names sort in capture order,
// which retention relies on.
func FileName(prefix, ext string, t time.Time) string {
	ms := t.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s%s_%03d%s", prefix, t.Format(timestampLayout), ms, ext)
}

func buildArgs(args []string, p string) []string {
	out := make([]string, 0, len(args)+1)
	replaced := false
	for _, a := range args {
		if strings.Contains(a, config.CapturePathArg) {
			replaced = true
			a = strings.ReplaceAll(a, config.CapturePathArg, p)
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, p)
	}
	return out
}

// CaptureAndSave returns the card path of the new file, e.g.
// "/sdcard/img_20240102_030405_678.jpg". Any failure wraps
// storage.ErrCaptureFailed.
func (c *CommandCapturer) CaptureAndSave(ctx context.Context) (string, error) {
	if c.opts.Command == "" {
		return "", fmt.Errorf("%w: %w", storage.ErrCaptureFailed, errNoCommand)
	}
	if !c.store.Mounted() {
		return "", fmt.Errorf("%w: %w", storage.ErrCaptureFailed, storage.ErrVolumeAbsent)
	}
	root, ok := c.store.DetectRoot()
	if !ok {
		return "", fmt.Errorf("%w: %w", storage.ErrCaptureFailed, storage.ErrNoRoot)
	}

	cardPath := path.Join(root, FileName(c.opts.Prefix, c.opts.Extension, c.clock.Now()))
	target := cardPath
	if pm, ok := c.store.Volume().(PathMapper); ok {
		rp, err := pm.RealPath(cardPath)
		if err != nil {
			return "", fmt.Errorf("%w: %w", storage.ErrCaptureFailed, err)
		}
		target = rp
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	args := buildArgs(c.opts.Args, target)
	log.Info().Str("command", c.opts.Command).Strs("args", args).Msg("running capture")

	out, err := c.exec.CombinedOutput(ctx, c.opts.Command, args...)
	if err != nil {
		log.Error().Err(err).Str("output", string(out)).Msg("capture command failed")
		return "", fmt.Errorf("%w: %s: %w", storage.ErrCaptureFailed, c.opts.Command, err)
	}

	info, err := c.store.Stat(cardPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrCaptureFailed, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("%w: %s is empty", storage.ErrCaptureFailed, cardPath)
	}

	log.Info().Str("path", cardPath).Int64("size", info.Size()).Msg("capture saved")
	return cardPath, nil
}
