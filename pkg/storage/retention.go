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
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/rs/zerolog/log"
)

// Report describes one retention pass.
type Report struct {
	Root string
	// Removed holds the full paths that were deleted, oldest first.
	Removed []string
	// Failed holds one ErrDeleteFailed-wrapping error per file that could
	// not be deleted.
	Failed []error
	// Files is how many top-level files were found before deleting.
	Files int
	// Limit is the limit the pass ran with.
	Limit int
}

// Err joins all deletion failures, or returns nil.
func (r Report) Err() error {
	return errors.Join(r.Failed...)
}

// Enforcer deletes the oldest top-level files on the card once there are
// more than MaxFilesToKeep of them. "Oldest" is the lexicographically
// smallest name; capture file names start with a timestamp so the orders
// agree.
type Enforcer struct {
	vol      Volume
	maxFiles int
}

// NewEnforcer creates an enforcer. A limit of 0 disables retention.
func NewEnforcer(vol Volume, maxFiles int) *Enforcer {
	e := &Enforcer{vol: vol}
	e.SetMaxFilesToKeep(maxFiles)
	return e
}

func (e *Enforcer) SetMaxFilesToKeep(n int) {
	if n < 0 {
		n = 0
	}
	e.maxFiles = n
}

func (e *Enforcer) MaxFilesToKeep() int {
	return e.maxFiles
}

// topLevelFiles returns the base names of all non-directory entries
// directly under root.
func topLevelFiles(vol Volume, root string) ([]string, error) {
	f, err := vol.Fs().Open(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", root, err)
	}
	defer func() {
		_ = f.Close()
	}()

	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, path.Base(info.Name()))
	}
	return names, nil
}

// Enforce runs one retention pass. It never stops on a failed deletion:
// the failure is logged and recorded, and the next candidate is tried, so
// one bad file cannot block retention forever. A card that keeps refusing
// the same delete will keep one extra file per refusal.
func (e *Enforcer) Enforce() Report {
	report := Report{Limit: e.maxFiles}
	if e.maxFiles == 0 {
		return report
	}

	root, ok := DetectRoot(e.vol)
	if !ok {
		return report
	}
	report.Root = root

	names, err := topLevelFiles(e.vol, root)
	if err != nil {
		log.Warn().Err(err).Str("root", root).Msg("retention: listing root failed")
		return report
	}
	report.Files = len(names)

	if len(names) <= e.maxFiles {
		return report
	}

	slices.Sort(names)
	toRemove := len(names) - e.maxFiles

	fs := e.vol.Fs()
	for _, name := range names[:toRemove] {
		p := path.Join(root, name)
		log.Info().Str("path", p).Msg("removing old file")
		if err := fs.Remove(p); err != nil {
			log.Error().Err(err).Str("path", p).Msg("failed to remove old file")
			report.Failed = append(report.Failed, fmt.Errorf("%w: %s: %w", ErrDeleteFailed, p, err))
			continue
		}
		report.Removed = append(report.Removed, p)
	}

	return report
}
