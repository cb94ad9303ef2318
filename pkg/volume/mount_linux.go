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

//go:build linux

package volume

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const procMounts = "/proc/mounts"

// mountWakeups polls /proc/mounts, which raises POLLPRI whenever the mount
// table changes. The file has to be read again to re-arm the event.
func mountWakeups(ctx context.Context) (<-chan struct{}, func()) {
	f, err := os.Open(procMounts)
	if err != nil {
		log.Debug().Err(err).Msg("mount table notifications unavailable")
		return nil, func() {}
	}

	wake := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pollMounts(ctx, f, wake)
	}()

	return wake, func() {
		// the poller must be gone before its fd is closed
		wg.Wait()
		_ = f.Close()
	}
}

func pollMounts(ctx context.Context, f *os.File, wake chan<- struct{}) {
	fds := []unix.PollFd{{
		Fd:     int32(f.Fd()), //nolint:gosec // fd fits in int32
		Events: unix.POLLPRI | unix.POLLERR,
	}}

	rearm := func() {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			log.Warn().Err(err).Msg("failed to seek mount table")
			return
		}
		_, _ = io.Copy(io.Discard, f)
	}
	rearm()

	for {
		if ctx.Err() != nil {
			return
		}

		// short timeout so cancellation is noticed
		n, err := unix.Poll(fds, 1000)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			log.Warn().Err(err).Msg("poll on mount table failed")
			return
		}
		if n == 0 || fds[0].Revents&(unix.POLLPRI|unix.POLLERR) == 0 {
			continue
		}

		rearm()
		select {
		case wake <- struct{}{}:
		default:
		}
	}
}
