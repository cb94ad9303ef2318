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
	"html/template"
	"io"

	"github.com/rs/zerolog"
)

var listingTmpl = template.Must(template.New("listing").Parse(
	`{{range .}}{{if .IsDir}}<b>{{.Rel}}/</b><br>
{{else}}<a href="/download?file={{.Rel}}">{{.Rel}}</a> ({{.Size}} bytes)<br>
{{end}}{{end}}`))

// RenderHTML writes entries as an HTML fragment with a download link per
// file. Names are escaped, links query-escaped.
func RenderHTML(w io.Writer, entries []Entry) error {
	if err := listingTmpl.Execute(w, entries); err != nil {
		return fmt.Errorf("failed to render listing: %w", err)
	}
	return nil
}

// DebugList writes a full recursive listing of the card to logger, one line
// per entry with its full path. When no root can be detected it probes both
// candidates and reports which ones open.
func DebugList(vol Volume, logger zerolog.Logger) {
	logger.Info().Msg("debug list: scanning card for files")

	if !Mounted(vol) {
		logger.Info().Msg("card reports no media (CARD_NONE)")
		return
	}

	fs := vol.Fs()
	root, ok := DetectRoot(vol)
	if !ok {
		logger.Info().Msg("no mount root detected, probing candidates")
		for _, candidate := range []string{RootSlash, RootSdcard} {
			if opens(fs, candidate) {
				logger.Info().Msgf("'%s' opened successfully but no files found", candidate)
			} else {
				logger.Info().Msgf("unable to open '%s'", candidate)
			}
		}
		return
	}

	logger.Info().Msgf("detected mount root: %s", root)
	err := Walk(fs, root, func(e Entry) error {
		if e.IsDir {
			logger.Info().Msgf("DIR  : %s", e.Path)
		} else {
			logger.Info().Msgf("FILE : %s  (%d bytes)", e.Path, e.Size)
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msgf("unable to open detected root: %s", root)
		return
	}

	logger.Info().Msg("debug list: scan complete")
}
