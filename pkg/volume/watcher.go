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

package volume

import (
	"context"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultRescanInterval is how often presence is re-checked when the
// platform gives no mount table notifications.
const DefaultRescanInterval = 5 * time.Second

// wakeupFunc returns a channel that fires when the mount table may have
// changed, and a func that releases its resources. A nil channel is valid
// and means rescans are interval-only.
type wakeupFunc func(ctx context.Context) (<-chan struct{}, func())

// Watcher reports card insertion (true) and removal (false).
type Watcher struct {
	vol      storage.Volume
	clock    clockwork.Clock
	wakeups  wakeupFunc
	changes  chan bool
	interval time.Duration
}

func NewWatcher(vol storage.Volume, clock clockwork.Clock, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultRescanInterval
	}
	return &Watcher{
		vol:      vol,
		clock:    clock,
		wakeups:  mountWakeups,
		changes:  make(chan bool, 1),
		interval: interval,
	}
}

// Changes is closed when Run returns.
func (w *Watcher) Changes() <-chan bool {
	return w.changes
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.changes)

	wake, release := w.wakeups(ctx)
	defer release()

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	last := storage.Mounted(w.vol)
	log.Debug().Bool("mounted", last).Dur("interval", w.interval).Msg("card watcher started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		case <-wake:
		}

		now := storage.Mounted(w.vol)
		if now == last {
			continue
		}
		last = now
		log.Info().Bool("mounted", now).Msg("card presence changed")

		select {
		case w.changes <- now:
		case <-ctx.Done():
			return nil
		}
	}
}
