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

package volume

import (
	"github.com/ZaparooProject/zaparoo-snap/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/spf13/afero"
)

// Memory is an in-memory card. The card type can be changed at any time to
// simulate insertion and removal.
type Memory struct {
	fs    afero.Fs
	total uint64
	mu    syncutil.RWMutex
	card  storage.CardType
}

func NewMemory(card storage.CardType, total uint64) *Memory {
	return &Memory{
		fs:    afero.NewMemMapFs(),
		card:  card,
		total: total,
	}
}

func (m *Memory) Fs() afero.Fs {
	return m.fs
}

func (m *Memory) CardType() storage.CardType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.card
}

func (m *Memory) SetCardType(card storage.CardType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.card = card
}

// Usage sums the sizes of every file on the card.
func (m *Memory) Usage() (total, used uint64, err error) {
	if !storage.Mounted(m) {
		return 0, 0, storage.ErrVolumeAbsent
	}
	var sum int64
	err = storage.Walk(m.fs, storage.RootSlash, func(e storage.Entry) error {
		sum += e.Size
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return m.total, uint64(sum), nil //nolint:gosec // sizes are never negative
}
