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

// Package api serves the card over HTTP: an HTML index, downloads, a
// capture trigger, a status page and a websocket event stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-snap/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-snap/pkg/capture"
	"github.com/ZaparooProject/zaparoo-snap/pkg/config"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	snapBurst         = 1
)

var defaultAllowedOrigins = []string{"https://*", "http://*"}

type Server struct {
	cfg       *config.Instance
	store     *storage.Store
	capturer  capture.Capturer
	notifs    chan<- models.Notification
	events    <-chan models.Notification
	session   *melody.Melody
	snapLimit *middleware.IPRateLimiter
}

// NewServer wires the handlers. Notifications produced by handlers go to
// notifs; events is the feed broadcast to /events clients and may be nil.
func NewServer(
	cfg *config.Instance,
	store *storage.Store,
	capturer capture.Capturer,
	clock clockwork.Clock,
	notifs chan<- models.Notification,
	events <-chan models.Notification,
) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		capturer: capturer,
		notifs:   notifs,
		events:   events,
		session:  melody.New(),
	}
	if perMinute := cfg.SnapRatePerMinute(); perMinute > 0 {
		s.snapLimit = middleware.NewIPRateLimiter(clock, perMinute, snapBurst)
	}
	s.session.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	s.session.HandleMessage(handleWSMessage)
	return s
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) Router() http.Handler {
	origins := s.cfg.AllowedOrigins()
	if len(origins) == 0 {
		origins = defaultAllowedOrigins
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(s.cfg.AllowedIPs())))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.NoCache)
		r.Get("/", s.handleIndex)
		r.Get("/sd_status", s.handleStatus)
		r.With(middleware.HTTPRateLimitMiddleware(s.snapLimit)).Get("/snap", s.handleSnap)
	})
	r.Get("/download", s.handleDownload)
	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		if err := s.session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	return r
}

func handleWSMessage(session *melody.Session, msg []byte) {
	// heartbeat
	if string(msg) == "ping" {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}
	log.Debug().Int("size", len(msg)).Msg("ignoring websocket message")
}

func (s *Server) broadcastNotifications(ctx context.Context) {
	if s.events == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-s.events:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NotificationObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.session.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// Serve handles requests on ln until ctx is done, then shuts down
// gracefully. Listening before serving means the server accepts
// connections as soon as Serve is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       config.APIReadTimeout,
		WriteTimeout:      config.APIWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.broadcastNotifications(gctx)
		return nil
	})

	if s.snapLimit != nil {
		g.Go(func() error {
			s.snapLimit.RunCleanup(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		// websocket connections are hijacked, Shutdown does not close them
		if err := s.session.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
			log.Warn().Err(err).Msg("closing websocket sessions")
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.APIListen()
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
