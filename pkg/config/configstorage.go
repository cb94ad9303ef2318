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
	DefaultBaseDir = ""
	DefaultDevice  = "/dev/mmcblk0"
)

type Storage struct {
	BaseDir           string `toml:"base_dir,omitempty"`
	Device            string `toml:"device,omitempty"`
	RetentionInterval string `toml:"retention_interval,omitempty" validate:"omitempty,duration"`
	MaxFilesToKeep    int    `toml:"max_files_to_keep" validate:"min=0"`
	Watch             bool   `toml:"watch"`
}

// StorageBaseDir is the host directory the card's "/" maps onto. Empty
// means wherever the card device is mounted. During development it can
// point at any directory laid out like a card.
func (c *Instance) StorageBaseDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Storage.BaseDir
}

// StorageDevice is the block device of the card, used to decide whether a
// card is present and what kind it is.
func (c *Instance) StorageDevice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.Device == "" {
		return DefaultDevice
	}
	return c.vals.Storage.Device
}

// MaxFilesToKeep is the retention limit. Zero disables retention.
func (c *Instance) MaxFilesToKeep() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Storage.MaxFilesToKeep
}

func (c *Instance) SetMaxFilesToKeep(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	c.vals.Storage.MaxFilesToKeep = n
}

// RetentionInterval is how often retention runs on a timer, on top of the
// runs after each capture. Zero means no timer.
func (c *Instance) RetentionInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.RetentionInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.vals.Storage.RetentionInterval)
	if err != nil {
		log.Warn().Err(err).Msg("invalid retention interval, timer disabled")
		return 0
	}
	return d
}

// WatchStorage enables retention runs triggered by new files appearing on
// the card, for captures written by other programs.
func (c *Instance) WatchStorage() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Storage.Watch
}
