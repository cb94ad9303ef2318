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

// Package volume provides the storage.Volume implementations: Host for a
// card mounted on the running system and Memory for tests and demos.
package volume

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/spf13/afero"
)

const (
	probeTimeout = 2 * time.Second
	sectorSize   = 512
	// Cards above 2GiB use the high capacity addressing scheme.
	sdscMaxBytes = 2 << 30
)

type (
	PartitionsFunc func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	UsageFunc      func(ctx context.Context, path string) (*disk.UsageStat, error)
)

// systemMounts are never treated as the card unless base_dir names them
// explicitly. Boards that boot from the same MMC device mount it here.
var systemMounts = []string{"/", "/boot", "/boot/firmware", "/boot/efi"}

// unmounted is served while no card filesystem is available.
var unmounted = afero.NewReadOnlyFs(afero.NewMemMapFs())

// Host is a card mounted on this machine. Card paths ("/", "/sdcard") are
// resolved under baseDir, and presence is decided by looking for a mounted
// partition of device. With no baseDir the card is rooted at wherever the
// device is mounted.
type Host struct {
	fs         afero.Fs
	sysFs      afero.Fs
	partitions PartitionsFunc
	usage      UsageFunc
	mounted    *cardFs
	baseDir    string
	device     string
	mountDir   string
	mu         syncutil.Mutex
}

type Option func(*Host)

// WithSysFs replaces the filesystem /sys is read from.
func WithSysFs(fs afero.Fs) Option {
	return func(h *Host) {
		h.sysFs = fs
	}
}

func WithPartitions(fn PartitionsFunc) Option {
	return func(h *Host) {
		h.partitions = fn
	}
}

func WithUsage(fn UsageFunc) Option {
	return func(h *Host) {
		h.usage = fn
	}
}

// WithFs replaces the card filesystem. The default is the OS filesystem
// rooted at baseDir, or at the device's mountpoint.
func WithFs(fs afero.Fs) Option {
	return func(h *Host) {
		h.fs = fs
	}
}

// NewHost creates a Host. An empty device skips the partition lookup and
// treats the card as present whenever baseDir exists. An empty baseDir
// follows the device's mountpoint; with neither set there is no card.
func NewHost(baseDir, device string, opts ...Option) *Host {
	h := &Host{
		device:     device,
		sysFs:      afero.NewOsFs(),
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
	}
	if baseDir != "" {
		h.baseDir = filepath.Clean(baseDir)
		h.fs = newCardFs(h.baseDir)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) Fs() afero.Fs {
	if h.fs != nil {
		return h.fs
	}
	root, ok := h.root()
	if !ok {
		return unmounted
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mounted == nil || h.mountDir != root {
		log.Info().Str("mountpoint", root).Msg("serving card from device mountpoint")
		h.mounted = newCardFs(root)
		h.mountDir = root
	}
	return h.mounted
}

func (h *Host) BaseDir() string {
	return h.baseDir
}

func (h *Host) Device() string {
	return h.device
}

// root is the host directory the card's "/" maps onto right now.
func (h *Host) root() (string, bool) {
	if h.baseDir != "" {
		return h.baseDir, true
	}
	if h.device == "" {
		return "", false
	}
	p, ok := h.partition()
	if !ok {
		return "", false
	}
	return p.Mountpoint, true
}

// RealPath maps a card path to the path on this machine.
func (h *Host) RealPath(p string) (string, error) {
	root, ok := h.root()
	if !ok {
		return "", fmt.Errorf("failed to map %s: %w", p, storage.ErrVolumeAbsent)
	}
	return filepath.Join(root, filepath.FromSlash(path.Clean("/"+p))), nil
}

// partition finds the first mounted partition of the configured device.
// Without an explicit baseDir, partitions on system mountpoints are skipped.
func (h *Host) partition() (disk.PartitionStat, bool) {
	if h.device == "" {
		return disk.PartitionStat{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	parts, err := h.partitions(ctx, true)
	if err != nil {
		log.Debug().Err(err).Msg("listing partitions")
		return disk.PartitionStat{}, false
	}
	for _, p := range parts {
		if !strings.HasPrefix(p.Device, h.device) {
			continue
		}
		if h.baseDir == "" && slices.Contains(systemMounts, filepath.Clean(p.Mountpoint)) {
			log.Debug().Str("device", p.Device).Str("mountpoint", p.Mountpoint).
				Msg("skipping system mount, set base_dir to serve it")
			continue
		}
		return p, true
	}
	return disk.PartitionStat{}, false
}

func (h *Host) baseDirExists() bool {
	if h.baseDir == "" {
		return false
	}
	info, err := os.Stat(h.baseDir)
	return err == nil && info.IsDir()
}

// CardType reports CardNone when the device has no mounted partition.
// Otherwise the kind is read from the kernel's block device attributes.
func (h *Host) CardType() storage.CardType {
	if h.device == "" {
		if h.baseDirExists() {
			return storage.CardUnknown
		}
		return storage.CardNone
	}

	if _, ok := h.partition(); !ok {
		return storage.CardNone
	}

	blockDir := path.Join("/sys/block", path.Base(h.device))
	typ, err := afero.ReadFile(h.sysFs, path.Join(blockDir, "device", "type"))
	if err != nil {
		log.Debug().Err(err).Str("device", h.device).Msg("reading card type")
		return storage.CardUnknown
	}

	switch strings.TrimSpace(string(typ)) {
	case "MMC":
		return storage.CardMMC
	case "SD":
		size, err := h.sizeBytes(blockDir)
		if err != nil {
			log.Debug().Err(err).Str("device", h.device).Msg("reading card size")
			return storage.CardSD
		}
		if size > sdscMaxBytes {
			return storage.CardSDHC
		}
		return storage.CardSD
	default:
		return storage.CardUnknown
	}
}

func (h *Host) sizeBytes(blockDir string) (uint64, error) {
	raw, err := afero.ReadFile(h.sysFs, path.Join(blockDir, "size"))
	if err != nil {
		return 0, fmt.Errorf("failed to read size: %w", err)
	}
	sectors, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse size: %w", err)
	}
	return sectors * sectorSize, nil
}

// Usage reports the capacity of the filesystem the card is mounted on.
func (h *Host) Usage() (total, used uint64, err error) {
	mountpoint := h.baseDir
	if h.device == "" && mountpoint == "" {
		return 0, 0, storage.ErrVolumeAbsent
	}
	if h.device != "" {
		p, ok := h.partition()
		if !ok {
			return 0, 0, storage.ErrVolumeAbsent
		}
		mountpoint = p.Mountpoint
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	stat, err := h.usage(ctx, mountpoint)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read usage of %s: %w", mountpoint, err)
	}
	if stat == nil {
		return 0, 0, errors.New("no usage reported")
	}
	return stat.Total, stat.Used, nil
}
