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

package service

import (
	"context"

	"github.com/ZaparooProject/zaparoo-snap/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-snap/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/rs/zerolog/log"
)

// watchCard turns presence changes into notifications. An inserted card
// gets a retention pass straight away, since it may have been filled
// elsewhere.
func watchCard(
	ctx context.Context,
	changes <-chan bool,
	store *storage.Store,
	ns chan<- models.Notification,
	retention *Retention,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case mounted, ok := <-changes:
			if !ok {
				return
			}
			if !mounted {
				log.Info().Msg("sd card removed")
				notifications.CardRemoved(ns)
				retention.Trigger()
				continue
			}

			params := models.CardParams{
				CardType: store.Volume().CardType().String(),
			}
			if root, ok := store.DetectRoot(); ok {
				params.Root = root
			}
			log.Info().
				Str("cardType", params.CardType).
				Str("root", params.Root).
				Msg("sd card inserted")
			notifications.CardInserted(ns, params)
			retention.Trigger()
		}
	}
}
