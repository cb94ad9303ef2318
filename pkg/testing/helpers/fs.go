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

package helpers

import (
	"fmt"
	"path"

	"github.com/spf13/afero"
)

// FSHelper provides utilities for filesystem fixtures in tests.
type FSHelper struct {
	Fs afero.Fs
}

func NewMemoryFS() *FSHelper {
	return &FSHelper{Fs: afero.NewMemMapFs()}
}

// WrapFS builds a helper around an existing filesystem, e.g. a volume's.
func WrapFS(fs afero.Fs) *FSHelper {
	return &FSHelper{Fs: fs}
}

// WriteFiles creates every file (path -> contents) with its parents.
func (h *FSHelper) WriteFiles(files map[string]string) error {
	for p, contents := range files {
		if err := h.Fs.MkdirAll(path.Dir(p), 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
		if err := afero.WriteFile(h.Fs, p, []byte(contents), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
	}
	return nil
}

func (h *FSHelper) ReadFile(p string) ([]byte, error) {
	data, err := afero.ReadFile(h.Fs, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

func (h *FSHelper) Exists(p string) bool {
	ok, err := afero.Exists(h.Fs, p)
	return err == nil && ok
}
