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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, contents string) *Instance {
	t.Helper()

	dir := t.TempDir()
	if contents != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(contents), 0o600))
	}

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	return cfg
}

func TestNewConfigWritesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, CfgFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_schema = 1")
	assert.Contains(t, string(data), "max_files_to_keep = 0")
	assert.NotEmpty(t, cfg.DeviceID())

	assert.Equal(t, DefaultAPIPort, cfg.APIPort())
	assert.Equal(t, ":8080", cfg.APIListen())
	assert.Empty(t, cfg.StorageBaseDir())
	assert.Equal(t, DefaultDevice, cfg.StorageDevice())
	assert.Equal(t, 0, cfg.MaxFilesToKeep())
	assert.Equal(t, time.Duration(0), cfg.RetentionInterval())
	assert.Equal(t, DefaultCapturePrefix, cfg.CapturePrefix())
	assert.Equal(t, DefaultCaptureExtension, cfg.CaptureExtension())
	assert.Equal(t, DefaultCaptureTimeout, cfg.CaptureTimeout())
	assert.Equal(t, DefaultSnapRatePerMinute, cfg.SnapRatePerMinute())
	assert.True(t, cfg.DiscoveryEnabled())
	assert.False(t, cfg.ErrorReporting())
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, `
config_schema = 1
debug_logging = true

[server]
port = 9000

[storage]
base_dir = "/mnt/card"
max_files_to_keep = 50
retention_interval = "10m"
watch = true

[capture]
command = "libcamera-still"
args = ["-n", "-o", "{path}"]
extension = ".jpeg"
timeout = "5s"
`)

	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, 9000, cfg.APIPort())
	assert.Equal(t, ":9000", cfg.APIListen())
	assert.Equal(t, "/mnt/card", cfg.StorageBaseDir())
	assert.Equal(t, DefaultDevice, cfg.StorageDevice())
	assert.Equal(t, 50, cfg.MaxFilesToKeep())
	assert.Equal(t, 10*time.Minute, cfg.RetentionInterval())
	assert.True(t, cfg.WatchStorage())

	name, args := cfg.CaptureCommand()
	assert.Equal(t, "libcamera-still", name)
	assert.Equal(t, []string{"-n", "-o", CapturePathArg}, args)
	assert.Equal(t, ".jpeg", cfg.CaptureExtension())
	assert.Equal(t, DefaultCapturePrefix, cfg.CapturePrefix())
	assert.Equal(t, 5*time.Second, cfg.CaptureTimeout())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		contains string
	}{
		{
			name:     "schema mismatch",
			contents: "config_schema = 2\n",
			contains: "schema version mismatch",
		},
		{
			name:     "negative retention limit",
			contents: "config_schema = 1\n[storage]\nmax_files_to_keep = -1\n",
			contains: "MaxFilesToKeep",
		},
		{
			name:     "bad retention interval",
			contents: "config_schema = 1\n[storage]\nretention_interval = \"soon\"\n",
			contains: "RetentionInterval",
		},
		{
			name:     "port out of range",
			contents: "config_schema = 1\n[server]\nport = 70000\n",
			contains: "Port",
		},
		{
			name:     "extension without dot",
			contents: "config_schema = 1\n[capture]\nextension = \"jpg\"\n",
			contains: "Extension",
		},
		{
			name:     "mqtt publisher without topic",
			contents: "config_schema = 1\n[[publishers.mqtt]]\nbroker = \"localhost:1883\"\n",
			contains: "Topic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(tt.contents), 0o600))

			_, err := NewConfig(dir, BaseDefaults)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, "")
	cfg.SetMaxFilesToKeep(25)
	cfg.SetAPIPort(8081)
	cfg.SetCaptureCommand("raspistill", []string{"-o", CapturePathArg})
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(filepath.Dir(cfg.Path()), BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, 25, reloaded.MaxFilesToKeep())
	assert.Equal(t, 8081, reloaded.APIPort())
	assert.Equal(t, cfg.DeviceID(), reloaded.DeviceID())

	name, args := reloaded.CaptureCommand()
	assert.Equal(t, "raspistill", name)
	assert.Equal(t, []string{"-o", CapturePathArg}, args)
}

func TestSetMaxFilesToKeepClampsNegative(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, "")
	cfg.SetMaxFilesToKeep(-5)
	assert.Equal(t, 0, cfg.MaxFilesToKeep())
}

func TestMQTTPublishers(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, `
config_schema = 1

[[publishers.mqtt]]
broker = "localhost:1883"
topic = "snap/events"

[[publishers.mqtt]]
enabled = false
broker = "other:1883"
topic = "ignored"
`)

	pubs := cfg.MQTTPublishers()
	require.Len(t, pubs, 1)
	assert.Equal(t, "localhost:1883", pubs[0].Broker)
	assert.Equal(t, "snap/events", pubs[0].Topic)
}

func TestCaptureCommandReturnsCopy(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, "")
	cfg.SetCaptureCommand("cam", []string{"-o", CapturePathArg})

	_, args := cfg.CaptureCommand()
	args[0] = "changed"

	_, again := cfg.CaptureCommand()
	assert.Equal(t, "-o", again[0])
}
