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
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "changes channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for presence change")
		return false
	}
}

func TestWatcherReportsChangesOnTick(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	vol := NewMemory(storage.CardSDHC, 0)
	w := NewWatcher(vol, clock, time.Second)
	w.wakeups = func(context.Context) (<-chan struct{}, func()) { return nil, func() {} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	vol.SetCardType(storage.CardNone)
	clock.Advance(time.Second)
	assert.False(t, receive(t, w.Changes()))

	vol.SetCardType(storage.CardSD)
	clock.Advance(time.Second)
	assert.True(t, receive(t, w.Changes()))

	cancel()
	require.NoError(t, <-done)

	_, ok := <-w.Changes()
	assert.False(t, ok)
}

func TestWatcherWakeup(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	vol := NewMemory(storage.CardNone, 0)
	wake := make(chan struct{}, 1)
	released := make(chan struct{})

	w := NewWatcher(vol, clock, time.Hour)
	w.wakeups = func(context.Context) (<-chan struct{}, func()) {
		return wake, func() { close(released) }
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	vol.SetCardType(storage.CardSDHC)
	wake <- struct{}{}
	assert.True(t, receive(t, w.Changes()))

	cancel()
	require.NoError(t, <-done)
	<-released
}

func TestWatcherIgnoresUnchanged(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	vol := NewMemory(storage.CardSDHC, 0)
	w := NewWatcher(vol, clock, 0)
	w.wakeups = func(context.Context) (<-chan struct{}, func()) { return nil, func() {} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(DefaultRescanInterval)
	clock.Advance(DefaultRescanInterval)

	select {
	case v := <-w.Changes():
		t.Fatalf("unexpected change %v", v)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
