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

// Package storage resolves paths on a removable card whose mount root can
// differ between boards, lists its contents, and enforces the file-count
// retention policy.
package storage

import "github.com/spf13/afero"

const (
	// RootSlash and RootSdcard are the only places the card's files can
	// show up. Which one holds the data depends on the board and firmware.
	RootSlash  = "/"
	RootSdcard = "/sdcard"
)

// CardType is the kind of card reported by the platform. It is only used
// for status output, apart from CardNone which means no card is present.
type CardType int

const (
	CardNone CardType = iota
	CardMMC
	CardSD
	CardSDHC
	CardUnknown
)

func (c CardType) String() string {
	switch c {
	case CardNone:
		return "CARD_NONE"
	case CardMMC:
		return "MMC"
	case CardSD:
		return "SDSC"
	case CardSDHC:
		return "SDHC/SDXC"
	default:
		return "UNKNOWN"
	}
}

// Volume is the attached card as the platform sees it. The platform owns
// the mount lifecycle; this package only queries it.
type Volume interface {
	// CardType returns CardNone when no card is mounted.
	CardType() CardType
	// Fs is the filesystem the card's paths ("/", "/sdcard/...") live in.
	Fs() afero.Fs
}

// UsageReporter is implemented by volumes that can report card capacity.
type UsageReporter interface {
	Usage() (total, used uint64, err error)
}

// Mounted reports whether the volume has a card.
func Mounted(vol Volume) bool {
	return vol.CardType() != CardNone
}
