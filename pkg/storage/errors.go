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

import "errors"

var (
	// ErrVolumeAbsent means no card is mounted.
	ErrVolumeAbsent = errors.New("sd card not mounted")
	// ErrNotFound means no candidate path could be opened.
	ErrNotFound = errors.New("file not found")
	// ErrMissingParameter means a required request argument was absent.
	ErrMissingParameter = errors.New("missing file parameter")
	// ErrCaptureFailed means the capture tool did not produce a file.
	ErrCaptureFailed = errors.New("capture failed")
	// ErrDeleteFailed wraps a single retention deletion that did not succeed.
	ErrDeleteFailed = errors.New("delete failed")
	// ErrNoRoot means a card is mounted but neither root could be used.
	ErrNoRoot = errors.New("no mount root detected")
)
