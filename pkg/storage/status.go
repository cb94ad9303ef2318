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
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// Status is a short plain-text snapshot of the card. It only reads, and is
// safe to call with no card present.
func Status(vol Volume) string {
	var sb strings.Builder

	ct := vol.CardType()
	sb.WriteString("SD mounted: ")
	if ct == CardNone {
		sb.WriteString("no\n")
	} else {
		sb.WriteString("yes\n")
	}

	sb.WriteString("Detected mount root: ")
	if root, ok := DetectRoot(vol); ok {
		sb.WriteString(root + "\n")
	} else {
		sb.WriteString("(none)\n")
	}

	sb.WriteString("Card type: " + ct.String() + "\n")

	if ur, ok := vol.(UsageReporter); ok && ct != CardNone {
		total, used, err := ur.Usage()
		if err != nil {
			log.Debug().Err(err).Msg("reading card usage")
		} else {
			sb.WriteString("Total space: " + humanize.IBytes(total) + "\n")
			sb.WriteString("Used space: " + humanize.IBytes(used) + "\n")
		}
	}

	return sb.String()
}
