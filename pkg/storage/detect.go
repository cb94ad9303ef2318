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
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// countFiles returns the number of non-directory entries directly under
// dir. A directory that cannot be opened or read counts as empty.
func countFiles(fs afero.Fs, dir string) int {
	f, err := fs.Open(dir)
	if err != nil {
		return 0
	}
	defer func() {
		_ = f.Close()
	}()

	infos, err := f.Readdir(-1)
	if err != nil {
		log.Debug().Err(err).Str("path", dir).Msg("reading directory for file count")
		return 0
	}

	count := 0
	for _, info := range infos {
		if !info.IsDir() {
			count++
		}
	}
	return count
}

// opens reports whether path can be opened at all, file or directory.
func opens(fs afero.Fs, path string) bool {
	f, err := fs.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// DetectRoot picks the mount root that holds the card's files. It is
// recomputed on every call because the same build runs on boards that
// mount the card at different places.
//
// When both roots hold files, "/" wins ties. When neither holds files,
// "/sdcard" is preferred if it exists. The two rules lean in opposite
// directions on purpose; boards observed so far rely on both.
func DetectRoot(vol Volume) (string, bool) {
	if !Mounted(vol) {
		return "", false
	}

	fs := vol.Fs()
	cntRoot := countFiles(fs, RootSlash)
	cntSdcard := countFiles(fs, RootSdcard)

	if cntRoot == 0 && cntSdcard == 0 {
		if opens(fs, RootSdcard) {
			return RootSdcard, true
		}
		if opens(fs, RootSlash) {
			return RootSlash, true
		}
		return "", false
	}

	return chooseRoot(cntRoot, cntSdcard), true
}

// chooseRoot is the decision rule once at least one root holds files.
func chooseRoot(cntRoot, cntSdcard int) string {
	if cntRoot >= cntSdcard {
		return RootSlash
	}
	return RootSdcard
}
