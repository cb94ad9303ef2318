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

// Package notifications builds the events published on the /events
// websocket and by the MQTT publishers.
package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-snap/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/rs/zerolog/log"
)

// sendNotification never blocks: a full queue drops the event.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("marshalling notification params")
			return
		}
		params = data
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification queue full, dropping")
	}
}

func CaptureSaved(ns chan<- models.Notification, payload models.CaptureSavedParams) {
	sendNotification(ns, models.NotificationCaptureSaved, payload)
}

// RetentionRemoved is only sent when a pass deleted or failed to delete
// something.
func RetentionRemoved(ns chan<- models.Notification, report storage.Report) {
	if len(report.Removed) == 0 && len(report.Failed) == 0 {
		return
	}
	sendNotification(ns, models.NotificationRetentionRemoved, models.RetentionRemovedParams{
		Root:    report.Root,
		Removed: report.Removed,
		Failed:  len(report.Failed),
		Limit:   report.Limit,
	})
}

func CardInserted(ns chan<- models.Notification, payload models.CardParams) {
	sendNotification(ns, models.NotificationCardInserted, payload)
}

func CardRemoved(ns chan<- models.Notification) {
	sendNotification(ns, models.NotificationCardRemoved, models.CardParams{
		CardType: storage.CardNone.String(),
	})
}
