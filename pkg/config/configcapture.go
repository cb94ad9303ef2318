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

package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultCapturePrefix    = "img_"
	DefaultCaptureExtension = ".jpg"
	DefaultCaptureTimeout   = 15 * time.Second
	// CapturePathArg is replaced with the destination file in capture args.
	CapturePathArg = "{path}"
)

type Capture struct {
	Command   string   `toml:"command,omitempty"`
	Prefix    string   `toml:"prefix,omitempty"`
	Extension string   `toml:"extension,omitempty" validate:"omitempty,startswith=."`
	Timeout   string   `toml:"timeout,omitempty" validate:"omitempty,duration"`
	Args      []string `toml:"args,omitempty"`
}

// CaptureCommand returns the program and arguments used to take a photo.
// An empty name means no capture tool is configured.
func (c *Instance) CaptureCommand() (name string, args []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	args = make([]string, len(c.vals.Capture.Args))
	copy(args, c.vals.Capture.Args)
	return c.vals.Capture.Command, args
}

func (c *Instance) SetCaptureCommand(name string, args []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Capture.Command = name
	c.vals.Capture.Args = args
}

func (c *Instance) CapturePrefix() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Capture.Prefix == "" {
		return DefaultCapturePrefix
	}
	return c.vals.Capture.Prefix
}

func (c *Instance) CaptureExtension() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Capture.Extension == "" {
		return DefaultCaptureExtension
	}
	return c.vals.Capture.Extension
}

func (c *Instance) CaptureTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Capture.Timeout == "" {
		return DefaultCaptureTimeout
	}
	d, err := time.ParseDuration(c.vals.Capture.Timeout)
	if err != nil || d <= 0 {
		log.Warn().Err(err).Msg("invalid capture timeout, using default")
		return DefaultCaptureTimeout
	}
	return d
}
