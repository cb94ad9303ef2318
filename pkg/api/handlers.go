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

package api

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-snap/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-snap/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

const (
	msgMissingFile   = "Missing file parameter"
	msgFileNotFound  = "File not found"
	msgCaptureFailed = "Capture failed or SD not mounted"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html><html><head><meta charset='utf-8'><title>Zaparoo Snap</title></head><body>
<h2>Files on SD card</h2>
{{if .Absent}}SD card not mounted.<br>
{{else if .NoRoot}}SD mounted but no files found (or unable to access mountpoint).<br>
{{else if .Failed}}Failed to open directory at {{.Root}}<br>
{{else}}<p>Listing for: {{.Root}}</p>
{{.Listing}}<p>{{.Files}} files, {{.Size}}</p>
{{end}}<hr><small>Use /download?file=/img_YYYY... or /download?file=img_... to download or /snap to take a photo now</small></body></html>
`))

type indexPage struct {
	Root    string
	Size    string
	Listing template.HTML
	Files   int
	Absent  bool
	NoRoot  bool
	Failed  bool
}

// writeText sends body verbatim, unlike http.Error which appends a newline.
func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	var page indexPage

	listing, err := s.store.Listing()
	switch {
	case errors.Is(err, storage.ErrVolumeAbsent):
		page.Absent = true
	case errors.Is(err, storage.ErrNoRoot):
		page.NoRoot = true
	case err != nil:
		log.Error().Err(err).Msg("listing card")
		page.Failed = true
		page.Root = listing.Root
	default:
		var buf bytes.Buffer
		if err := storage.RenderHTML(&buf, listing.Entries); err != nil {
			log.Error().Err(err).Msg("rendering listing")
			page.Failed = true
			page.Root = listing.Root
			break
		}
		page.Root = listing.Root
		//nolint:gosec // RenderHTML escapes every name
		page.Listing = template.HTML(buf.String())
		for _, e := range listing.Entries {
			if !e.IsDir {
				page.Files++
			}
		}
		page.Size = humanize.IBytes(uint64(storage.TotalSize(listing.Entries))) //nolint:gosec // never negative
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, page); err != nil {
		log.Error().Err(err).Msg("writing index page")
	}
}

// attachmentName is the last path segment of ref with quotes and control
// characters removed.
func attachmentName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, ref)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("file") {
		writeText(w, http.StatusBadRequest, msgMissingFile)
		return
	}
	ref := q.Get("file")

	f, opened, err := s.store.Open(ref)
	if err != nil {
		log.Debug().Err(err).Str("file", ref).Msg("download not found")
		writeText(w, http.StatusNotFound, msgFileNotFound)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("path", opened).Msg("closing download")
		}
	}()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeText(w, http.StatusNotFound, msgFileNotFound)
		return
	}

	w.Header().Set("Content-Type", storage.ContentType(ref))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", attachmentName(ref)))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, f)
	if err != nil {
		log.Warn().Err(err).Str("path", opened).Int64("sent", n).Msg("download interrupted")
		return
	}
	log.Info().Str("path", opened).Int64("bytes", n).Msg("download complete")
}

func (s *Server) handleSnap(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("HTTP /snap requested - triggering capture")

	saved, err := s.capturer.CaptureAndSave(r.Context())
	if err != nil || saved == "" {
		log.Error().Err(err).Msg("capture failed")
		writeText(w, http.StatusInternalServerError, msgCaptureFailed)
		return
	}

	downloadURL := "/download?file=" + storage.RelativeLink(saved)
	writeText(w, http.StatusOK, "Saved: "+saved+"\nDownload URL: "+downloadURL)

	notifications.CaptureSaved(s.notifs, models.CaptureSavedParams{
		Path:        saved,
		DownloadURL: downloadURL,
	})

	report := s.store.Enforce()
	if err := report.Err(); err != nil {
		log.Warn().Err(err).Msg("retention after capture")
	}
	notifications.RetentionRemoved(s.notifs, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, s.store.Status())
}
