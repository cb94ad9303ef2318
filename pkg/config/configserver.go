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

package config

import (
	"slices"
	"strconv"
)

const (
	DefaultAPIPort           = 8080
	DefaultSnapRatePerMinute = 6
)

type Server struct {
	Port              *int      `toml:"port,omitempty" validate:"omitnil,min=1,max=65535"`
	SnapRatePerMinute *int      `toml:"snap_rate_per_minute,omitempty" validate:"omitnil,min=0"`
	Listen            string    `toml:"listen,omitempty"`
	AllowedOrigins    []string  `toml:"allowed_origins,omitempty"`
	AllowedIPs        []string  `toml:"allowed_ips,omitempty"`
	Discovery         Discovery `toml:"discovery,omitempty"`
}

type Discovery struct {
	Enabled      *bool  `toml:"enabled,omitempty"`
	InstanceName string `toml:"instance_name,omitempty"`
}

type Publishers struct {
	MQTT []MQTTPublisher `toml:"mqtt,omitempty" validate:"dive"`
}

type MQTTPublisher struct {
	Enabled *bool    `toml:"enabled,omitempty"`
	Broker  string   `toml:"broker" validate:"required"`
	Topic   string   `toml:"topic" validate:"required"`
	Filter  []string `toml:"filter,omitempty,multiline"`
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiPortLocked()
}

// apiPortLocked returns the API port. Caller must hold mu (read or write).
func (c *Instance) apiPortLocked() int {
	if c.vals.Server.Port == nil {
		return DefaultAPIPort
	}
	return *c.vals.Server.Port
}

func (c *Instance) SetAPIPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Server.Port = &port
}

func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Server.Listen == "" {
		return ":" + strconv.Itoa(c.apiPortLocked())
	}
	return c.vals.Server.Listen
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Server.AllowedOrigins
}

// AllowedIPs lists addresses and CIDRs allowed to connect. Empty allows
// everyone.
func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.vals.Server.AllowedIPs)
}

// SnapRatePerMinute limits /snap requests per client. Zero disables the limit.

func (c *Instance) SnapRatePerMinute() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Server.SnapRatePerMinute == nil {
		return DefaultSnapRatePerMinute
	}
	return *c.vals.Server.SnapRatePerMinute
}

func (c *Instance) DiscoveryEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Server.Discovery.Enabled == nil {
		return true
	}
	return *c.vals.Server.Discovery.Enabled
}

func (c *Instance) DiscoveryInstanceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Server.Discovery.InstanceName
}

// MQTTPublishers returns the enabled MQTT publishers. A publisher without an
// explicit enabled flag counts as enabled.
func (c *Instance) MQTTPublishers() []MQTTPublisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var enabled []MQTTPublisher
	for _, p := range c.vals.Publishers.MQTT {
		if p.Enabled != nil && !*p.Enabled {
			continue
		}
		enabled = append(enabled, p)
	}
	return enabled
}

func (c *Instance) SetSnapRatePerMinute(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Server.SnapRatePerMinute = &n
}

func (c *Instance) SetAllowedIPs(ips []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Server.AllowedIPs = slices.Clone(ips)
}

func (c *Instance) SetDiscoveryEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Server.Discovery.Enabled = &enabled
}

func (c *Instance) SetDiscoveryInstanceName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Server.Discovery.InstanceName = name
}
