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
	"os"
	"path"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Entry is one file or directory found while walking the card. Entries are
// read fresh on every walk; nothing is cached.
type Entry struct {
	// Path is the full path on the volume, e.g. "/sdcard/dcim/img_1.jpg".
	Path string
	// Rel is the path relative to the walked root, e.g. "dcim/img_1.jpg".
	// Download links use it so they resolve through the same prefix rules.
	Rel   string
	Name  string
	Size  int64
	Depth int
	IsDir bool
}

// WalkFunc is called for every entry. Returning an error stops the walk.
type WalkFunc func(Entry) error

// Walk visits everything under root depth-first, reporting each directory
// before its children. Each directory handle is released before Walk
// returns from that level, so at most one handle per nesting level is open.
// A subdirectory that cannot be opened is logged and skipped.
func Walk(fs afero.Fs, root string, fn WalkFunc) error {
	return walkDir(fs, root, "", 0, fn, true)
}

func walkDir(fs afero.Fs, dir, rel string, depth int, fn WalkFunc, isRoot bool) error {
	f, err := fs.Open(dir)
	if err != nil {
		if isRoot {
			return fmt.Errorf("failed to open %s: %w", dir, err)
		}
		log.Warn().Err(err).Str("path", dir).Msg("failed to open subdirectory")
		return nil
	}
	defer func() {
		_ = f.Close()
	}()

	infos, err := f.Readdir(-1)
	if err != nil {
		if isRoot {
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		log.Warn().Err(err).Str("path", dir).Msg("failed to read subdirectory")
		return nil
	}
	slices.SortFunc(infos, func(a, b os.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, info := range infos {
		name := path.Base(info.Name())
		entry := Entry{
			Path:  path.Join(dir, name),
			Rel:   path.Join(rel, name),
			Name:  name,
			IsDir: info.IsDir(),
			Depth: depth,
		}
		if !entry.IsDir {
			entry.Size = info.Size()
		}

		if err := fn(entry); err != nil {
			return err
		}

		if entry.IsDir {
			if err := walkDir(fs, entry.Path, entry.Rel, depth+1, fn, false); err != nil {
				return err
			}
		}
	}

	return nil
}

// List collects a Walk into a slice.
func List(fs afero.Fs, root string) ([]Entry, error) {
	var entries []Entry
	err := Walk(fs, root, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// TotalSize sums the sizes of all files in entries.
func TotalSize(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		if !e.IsDir {
			total += e.Size
		}
	}
	return total
}
