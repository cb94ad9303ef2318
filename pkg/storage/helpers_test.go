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
	"os"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type memVolume struct {
	fs   afero.Fs
	card CardType
}

func (v *memVolume) CardType() CardType { return v.card }
func (v *memVolume) Fs() afero.Fs       { return v.fs }

// newMemVolume builds an SDHC card holding files (path -> contents).
func newMemVolume(t *testing.T, files map[string]string) *memVolume {
	t.Helper()
	vol := &memVolume{fs: afero.NewMemMapFs(), card: CardSDHC}
	for p, contents := range files {
		writeFile(t, vol.fs, p, contents)
	}
	return vol
}

func writeFile(t *testing.T, fs afero.Fs, p, contents string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(path.Dir(p), 0o755))
	require.NoError(t, afero.WriteFile(fs, p, []byte(contents), 0o644))
}

// failingRemoveFs refuses to delete the listed paths.
type failingRemoveFs struct {
	afero.Fs
	refuse map[string]bool
}

func (f *failingRemoveFs) Remove(name string) error {
	if f.refuse[name] {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Remove(name)
}
