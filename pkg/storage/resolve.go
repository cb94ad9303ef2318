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
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Candidate turns a normalized file reference into zero or more paths to
// try, in order. Candidates never touch the filesystem.
type Candidate func(ref string) []string

// prefixCandidates run before the mount root is detected. The same file can
// be referenced with no prefix, a leading slash, or a full "/sdcard/" path
// depending on whether the link came from a browser listing or from the
// capture routine, so every combination is tried.
var prefixCandidates = []Candidate{
	verbatim,
	underSdcard,
	underSlash,
	reprefixed,
}

func verbatim(ref string) []string {
	return []string{ref}
}

func underSdcard(ref string) []string {
	if strings.HasPrefix(ref, "/") {
		return nil
	}
	return []string{RootSdcard + "/" + ref}
}

func underSlash(ref string) []string {
	if strings.HasPrefix(ref, "/") {
		return nil
	}
	return []string{"/" + ref}
}

func reprefixed(ref string) []string {
	if !strings.HasPrefix(ref, "/") {
		return nil
	}
	trimmed := ref[1:]
	return []string{RootSdcard + "/" + trimmed, "/" + trimmed}
}

// underRoot is the last resort: the reference joined onto the detected root.
func underRoot(root, ref string) string {
	return strings.TrimSuffix(root, "/") + "/" + strings.TrimPrefix(ref, "/")
}

// Normalize strips any number of leading "./" segments.
func Normalize(ref string) string {
	for strings.HasPrefix(ref, "./") {
		ref = ref[2:]
	}
	return ref
}

// prefixPaths applies prefixCandidates in order, dropping duplicates.
func prefixPaths(ref string) []string {
	var out []string
	for _, c := range prefixCandidates {
		for _, p := range c(ref) {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Candidates lists every path Open would try for ref, in order, given the
// root DetectRoot would return. Duplicates are dropped.
func Candidates(ref, root string, hasRoot bool) []string {
	ref = Normalize(ref)
	if ref == "" {
		return nil
	}
	out := prefixPaths(ref)
	if hasRoot {
		if p := underRoot(root, ref); !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// Resolver opens client-supplied file references on a volume without the
// caller knowing where the card is mounted.
type Resolver struct {
	vol Volume
}

func NewResolver(vol Volume) *Resolver {
	return &Resolver{vol: vol}
}

// Open returns the first candidate that opens, and the path it opened
// under. Individual open failures are not reported; only running out of
// candidates yields ErrNotFound. The handle may be a directory, callers
// decide what to do with that.
func (r *Resolver) Open(ref string) (afero.File, string, error) {
	ref = Normalize(ref)
	if ref == "" {
		return nil, "", ErrNotFound
	}
	if !Mounted(r.vol) {
		return nil, "", fmt.Errorf("%w: %w", ErrNotFound, ErrVolumeAbsent)
	}

	fs := r.vol.Fs()
	try := func(p string) afero.File {
		f, err := fs.Open(p)
		if err != nil {
			return nil
		}
		return f
	}

	paths := prefixPaths(ref)
	for _, p := range paths {
		if f := try(p); f != nil {
			log.Debug().Str("ref", ref).Str("path", p).Msg("resolved file reference")
			return f, p, nil
		}
	}

	// only scan for the root once the cheap candidates are exhausted
	if root, ok := DetectRoot(r.vol); ok {
		if p := underRoot(root, ref); !slices.Contains(paths, p) {
			if f := try(p); f != nil {
				log.Debug().Str("ref", ref).Str("path", p).Msg("resolved file reference under root")
				return f, p, nil
			}
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// RelativeLink turns a path on the card into the short form used in
// download links: "/sdcard/" is stripped, otherwise a single leading "/".
func RelativeLink(p string) string {
	if rel, ok := strings.CutPrefix(p, RootSdcard+"/"); ok {
		return rel
	}
	return strings.TrimPrefix(p, "/")
}
