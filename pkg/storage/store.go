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

package storage

import (
	"fmt"
	"os"

	"github.com/ZaparooProject/zaparoo-snap/pkg/helpers/syncutil"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Listing is a snapshot of the card for the index page.
type Listing struct {
	Root    string
	Entries []Entry
}

// Store is the single entry point to the card for the HTTP handlers, the
// capture routine and the retention scheduler. Every operation runs to
// completion under one lock before the next starts.
type Store struct {
	vol      Volume
	resolver *Resolver
	enforcer *Enforcer
	mu       syncutil.Mutex
}

// NewStore wires the resolver and enforcer to vol. maxFilesToKeep of 0
// disables retention.
func NewStore(vol Volume, maxFilesToKeep int) *Store {
	return &Store{
		vol:      vol,
		resolver: NewResolver(vol),
		enforcer: NewEnforcer(vol, maxFilesToKeep),
	}
}

func (s *Store) Volume() Volume {
	return s.vol
}

func (s *Store) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Mounted(s.vol)
}

func (s *Store) DetectRoot() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DetectRoot(s.vol)
}

// Open resolves ref to an open file. The lock is released on return, so
// the caller streams the file without blocking other operations.
func (s *Store) Open(ref string) (afero.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Open(ref)
}

// Listing walks the detected root. It returns ErrVolumeAbsent with no card
// and ErrNoRoot when neither root can be used.
func (s *Store) Listing() (Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !Mounted(s.vol) {
		return Listing{}, ErrVolumeAbsent
	}

	root, ok := DetectRoot(s.vol)
	if !ok {
		return Listing{}, ErrNoRoot
	}

	entries, err := List(s.vol.Fs(), root)
	if err != nil {
		return Listing{Root: root}, fmt.Errorf("failed to list %s: %w", root, err)
	}
	return Listing{Root: root, Entries: entries}, nil
}

func (s *Store) Stat(p string) (os.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := s.vol.Fs().Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return info, nil
}

func (s *Store) Enforce() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enforcer.Enforce()
}

func (s *Store) SetMaxFilesToKeep(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enforcer.SetMaxFilesToKeep(n)
}

func (s *Store) MaxFilesToKeep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enforcer.MaxFilesToKeep()
}

func (s *Store) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status(s.vol)
}

func (s *Store) DebugList(logger zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	DebugList(s.vol, logger)
}
