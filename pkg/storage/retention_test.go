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

package storage

import (
	"fmt"
	"slices"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func timestampedFiles(n int) map[string]string {
	files := make(map[string]string, n)
	for i := 1; i <= n; i++ {
		files[fmt.Sprintf("/20240101_%04d.jpg", i)] = "x"
	}
	return files
}

func remaining(t *testing.T, fs afero.Fs, root string) []string {
	t.Helper()
	names, err := topLevelFiles(&memVolume{fs: fs, card: CardSDHC}, root)
	require.NoError(t, err)
	slices.Sort(names)
	return names
}

func TestEnforceRemovesOldest(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, timestampedFiles(10))

	report := NewEnforcer(vol, 3).Enforce()
	require.NoError(t, report.Err())

	assert.Equal(t, RootSlash, report.Root)
	assert.Equal(t, 10, report.Files)
	assert.Equal(t, 3, report.Limit)
	assert.Len(t, report.Removed, 7)
	assert.Equal(t, "/20240101_0001.jpg", report.Removed[0])
	assert.Equal(t, "/20240101_0007.jpg", report.Removed[6])
	assert.Equal(t,
		[]string{"20240101_0008.jpg", "20240101_0009.jpg", "20240101_0010.jpg"},
		remaining(t, vol.Fs(), RootSlash),
	)
}

func TestEnforceIdempotent(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, timestampedFiles(10))
	enforcer := NewEnforcer(vol, 3)

	enforcer.Enforce()
	second := enforcer.Enforce()

	assert.Empty(t, second.Removed)
	assert.Empty(t, second.Failed)
	assert.Equal(t, 3, second.Files)
}

func TestEnforceUnderLimit(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, timestampedFiles(3))

	report := NewEnforcer(vol, 3).Enforce()
	assert.Empty(t, report.Removed)
	assert.Len(t, remaining(t, vol.Fs(), RootSlash), 3)
}

func TestEnforceDisabled(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, timestampedFiles(10))

	report := NewEnforcer(vol, 0).Enforce()
	assert.Empty(t, report.Removed)
	assert.Empty(t, report.Root)
	assert.Len(t, remaining(t, vol.Fs(), RootSlash), 10)
}

func TestEnforceNegativeLimitDisables(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, timestampedFiles(5))
	enforcer := NewEnforcer(vol, -4)

	assert.Zero(t, enforcer.MaxFilesToKeep())
	assert.Empty(t, enforcer.Enforce().Removed)
}

func TestEnforceNoCard(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, timestampedFiles(5))
	vol.card = CardNone

	report := NewEnforcer(vol, 1).Enforce()
	assert.Empty(t, report.Removed)
	assert.Len(t, remaining(t, vol.Fs(), RootSlash), 5)
}

func TestEnforceIgnoresDirectories(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, map[string]string{
		"/sdcard/b.jpg":      "b",
		"/sdcard/c.jpg":      "c",
		"/sdcard/dcim/a.jpg": "a",
	})

	report := NewEnforcer(vol, 1).Enforce()
	require.NoError(t, report.Err())

	assert.Equal(t, RootSdcard, report.Root)
	assert.Equal(t, []string{"/sdcard/b.jpg"}, report.Removed)

	exists, err := afero.Exists(vol.Fs(), "/sdcard/dcim/a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
	isDir, err := afero.IsDir(vol.Fs(), "/sdcard/dcim")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestEnforceContinuesPastFailedDelete(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, timestampedFiles(10))
	vol.fs = &failingRemoveFs{
		Fs:     vol.fs,
		refuse: map[string]bool{"/20240101_0002.jpg": true},
	}

	report := NewEnforcer(vol, 3).Enforce()

	assert.Len(t, report.Removed, 6)
	require.Len(t, report.Failed, 1)
	require.ErrorIs(t, report.Err(), ErrDeleteFailed)
	assert.Contains(t, report.Err().Error(), "/20240101_0002.jpg")
	assert.Equal(t,
		[]string{"20240101_0002.jpg", "20240101_0008.jpg", "20240101_0009.jpg", "20240101_0010.jpg"},
		remaining(t, vol.Fs(), RootSlash),
	)
}

func TestPropertyEnforceKeepsNewest(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(
			rapid.StringMatching(`2024[0-9]{4}_[0-9]{6}\.jpg`), 0, 30, rapid.ID[string],
		).Draw(t, "names")
		limit := rapid.IntRange(1, 30).Draw(t, "limit")

		fs := afero.NewMemMapFs()
		for _, n := range names {
			if err := afero.WriteFile(fs, "/"+n, []byte("x"), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
		}
		vol := &memVolume{fs: fs, card: CardSDHC}

		report := NewEnforcer(vol, limit).Enforce()
		if err := report.Err(); err != nil {
			t.Fatalf("unexpected failure: %v", err)
		}

		left, err := topLevelFiles(vol, RootSlash)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		slices.Sort(left)

		sorted := slices.Clone(names)
		slices.Sort(sorted)
		want := sorted[max(0, len(sorted)-limit):]
		if !slices.Equal(left, want) {
			t.Fatalf("kept %v, want %v", left, want)
		}
	})
}
