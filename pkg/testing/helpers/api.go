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
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/api/models"
	"github.com/gorilla/websocket"
)

// DialEvents connects a websocket client to the /events endpoint of a test
// server at serverURL.
func DialEvents(serverURL string) (*websocket.Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server URL: %w", err)
	}
	u.Scheme = "ws"
	u.Path = "/events"

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}
	return conn, nil
}

// ReadNotification reads one notification frame from conn.
func ReadNotification(conn *websocket.Conn, timeout time.Duration) (models.NotificationObject, error) {
	var notif models.NotificationObject
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return notif, fmt.Errorf("failed to set read deadline: %w", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return notif, fmt.Errorf("failed to read message: %w", err)
	}
	if err := json.Unmarshal(data, &notif); err != nil {
		return notif, fmt.Errorf("failed to decode notification: %w", err)
	}
	return notif, nil
}
