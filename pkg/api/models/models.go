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

package models

import "encoding/json"

const (
	NotificationCaptureSaved     = "capture.saved"
	NotificationRetentionRemoved = "retention.removed"
	NotificationCardInserted     = "card.inserted"
	NotificationCardRemoved      = "card.removed"
)

type Notification struct {
	Method string
	Params json.RawMessage
}

// NotificationObject is how a notification is framed on the /events
// websocket: a JSON-RPC 2.0 notification, which has no id.
type NotificationObject struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type CaptureSavedParams struct {
	Path        string `json:"path"`
	DownloadURL string `json:"downloadUrl"`
}

type RetentionRemovedParams struct {
	Root    string   `json:"root"`
	Removed []string `json:"removed"`
	Failed  int      `json:"failed"`
	Limit   int      `json:"limit"`
}

type CardParams struct {
	CardType string `json:"cardType"`
	Root     string `json:"root,omitempty"`
}
