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
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrivateIPv4s(t *testing.T) {
	t.Parallel()

	mustCIDR := func(s string) net.Addr {
		ip, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			t.Fatal(err)
		}
		ipnet.IP = ip
		return ipnet
	}

	addrs := []net.Addr{
		mustCIDR("127.0.0.1/8"),
		mustCIDR("192.168.4.1/24"),
		mustCIDR("8.8.8.8/32"),
		mustCIDR("fd00::1/64"),
		mustCIDR("10.0.0.7/8"),
	}

	assert.Equal(t, []string{"192.168.4.1", "10.0.0.7"}, privateIPv4s(addrs))
	assert.Empty(t, privateIPv4s(nil))
}
