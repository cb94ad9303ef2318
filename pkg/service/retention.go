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

package service

import (
	"context"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-snap/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-snap/pkg/capture"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Retention runs enforcement passes on a timer, on request, and when new
// files appear in the detected root.
type Retention struct {
	store    *storage.Store
	clock    clockwork.Clock
	ns       chan<- models.Notification
	trigger  chan struct{}
	interval time.Duration
	watch    bool
}

func NewRetention(
	store *storage.Store,
	clock clockwork.Clock,
	ns chan<- models.Notification,
	interval time.Duration,
	watch bool,
) *Retention {
	return &Retention{
		store:    store,
		clock:    clock,
		ns:       ns,
		trigger:  make(chan struct{}, 1),
		interval: interval,
		watch:    watch,
	}
}

// Trigger requests a pass. Requests made while one is pending are merged.
func (r *Retention) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Retention) enforce() {
	report := r.store.Enforce()
	if err := report.Err(); err != nil {
		log.Warn().Err(err).Msg("retention pass had failures")
	}
	notifications.RetentionRemoved(r.ns, report)
}

// Run blocks until ctx is done.
func (r *Retention) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := r.clock.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	var rw *rootWatch
	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	if r.watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			log.Warn().Err(err).Msg("storage watch unavailable")
		} else {
			rw = &rootWatch{w: w}
			defer rw.close()
			fsEvents = w.Events
			fsErrors = w.Errors
			rw.sync(r.store)
		}
	}

	log.Debug().
		Dur("interval", r.interval).
		Bool("watch", rw != nil).
		Msg("retention scheduler started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			r.enforce()
		case <-r.trigger:
			r.enforce()
			rw.sync(r.store)
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if ev.Has(fsnotify.Create) {
				log.Debug().Str("path", ev.Name).Msg("new file in storage root")
				r.enforce()
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			log.Warn().Err(err).Msg("storage watch error")
		}
	}
}

// rootWatch keeps an fsnotify watch on the host directory backing the
// detected root. Volumes without a host path are not watched.
type rootWatch struct {
	w       *fsnotify.Watcher
	current string
}

func (rw *rootWatch) sync(store *storage.Store) {
	if rw == nil {
		return
	}

	want := ""
	if root, ok := store.DetectRoot(); ok {
		if pm, ok := store.Volume().(capture.PathMapper); ok {
			p, err := pm.RealPath(root)
			if err != nil {
				log.Warn().Err(err).Str("root", root).Msg("resolving storage root for watch")
			} else {
				want = p
			}
		}
	}

	if want == rw.current {
		return
	}
	if rw.current != "" {
		// the directory may already be gone with the card
		_ = rw.w.Remove(rw.current)
	}
	rw.current = ""
	if want == "" {
		return
	}
	if err := rw.w.Add(want); err != nil {
		log.Warn().Err(err).Str("path", want).Msg("watching storage root")
		return
	}
	rw.current = want
	log.Debug().Str("path", want).Msg("watching storage root")
}

func (rw *rootWatch) close() {
	if err := rw.w.Close(); err != nil {
		log.Debug().Err(err).Msg("closing storage watch")
	}
}
