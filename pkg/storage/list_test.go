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
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPreOrder(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, map[string]string{
		"/sdcard/a.txt":      "abc",
		"/sdcard/dcim/x.jpg": "12345",
		"/sdcard/dcim/y.jpg": "12",
	})

	entries, err := List(vol.Fs(), RootSdcard)
	require.NoError(t, err)

	expected := []Entry{
		{Path: "/sdcard/a.txt", Rel: "a.txt", Name: "a.txt", Size: 3, Depth: 0},
		{Path: "/sdcard/dcim", Rel: "dcim", Name: "dcim", Depth: 0, IsDir: true},
		{Path: "/sdcard/dcim/x.jpg", Rel: "dcim/x.jpg", Name: "x.jpg", Size: 5, Depth: 1},
		{Path: "/sdcard/dcim/y.jpg", Rel: "dcim/y.jpg", Name: "y.jpg", Size: 2, Depth: 1},
	}
	assert.Equal(t, expected, entries)
	assert.Equal(t, int64(10), TotalSize(entries))
}

func TestListEmptyRoot(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(RootSdcard, 0o755))

	entries, err := List(fs, RootSdcard)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, TotalSize(entries))
}

func TestListMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := List(afero.NewMemMapFs(), "/missing")
	require.Error(t, err)
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, map[string]string{
		"/a.jpg": "a",
		"/b.jpg": "b",
		"/c.jpg": "c",
	})
	stop := errors.New("stop")

	var seen []string
	err := Walk(vol.Fs(), RootSlash, func(e Entry) error {
		seen = append(seen, e.Name)
		if e.Name == "b.jpg" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, seen)
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Rel: "dcim", Name: "dcim", IsDir: true},
		{Rel: "dcim/img_1.jpg", Name: "img_1.jpg", Size: 42, Depth: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, entries))

	out := buf.String()
	assert.Contains(t, out, "<b>dcim/</b><br>")
	assert.Contains(t, out, `<a href="/download?file=dcim%2fimg_1.jpg">dcim/img_1.jpg</a> (42 bytes)<br>`)
}

func TestRenderHTMLEscapesNames(t *testing.T) {
	t.Parallel()

	entries := []Entry{{Rel: "<b>&x.jpg", Name: "<b>&x.jpg", Size: 1}}

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, entries))

	out := buf.String()
	assert.NotContains(t, out, "<b>&x.jpg")
	assert.Contains(t, out, "&lt;b&gt;&amp;x.jpg")
	assert.Contains(t, out, "file=%3cb%3e%26x.jpg")
}

func TestDebugList(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, map[string]string{
		"/sdcard/a.txt":      "abc",
		"/sdcard/dcim/x.jpg": "12345",
	})

	var buf bytes.Buffer
	DebugList(vol, zerolog.New(&buf))

	out := buf.String()
	assert.Contains(t, out, "detected mount root: /sdcard")
	assert.Contains(t, out, "FILE : /sdcard/a.txt  (3 bytes)")
	assert.Contains(t, out, "DIR  : /sdcard/dcim")
	assert.Contains(t, out, "FILE : /sdcard/dcim/x.jpg  (5 bytes)")
	assert.Contains(t, out, "debug list: scan complete")
}

func TestDebugListNoCard(t *testing.T) {
	t.Parallel()

	vol := newMemVolume(t, map[string]string{"/a.txt": "abc"})
	vol.card = CardNone

	var buf bytes.Buffer
	DebugList(vol, zerolog.New(&buf))

	out := buf.String()
	assert.Contains(t, out, "card reports no media (CARD_NONE)")
	assert.NotContains(t, out, "FILE :")
}

func TestDebugListNoRoot(t *testing.T) {
	t.Parallel()

	vol := &memVolume{
		fs:   afero.NewBasePathFs(afero.NewMemMapFs(), "/not-mounted"),
		card: CardSD,
	}

	var buf bytes.Buffer
	DebugList(vol, zerolog.New(&buf))

	out := buf.String()
	assert.Contains(t, out, "no mount root detected, probing candidates")
	assert.Contains(t, out, "unable to open '/'")
	assert.Contains(t, out, "unable to open '/sdcard'")
}
