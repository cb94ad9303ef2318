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

// Package service wires the storage volume, HTTP API, notification broker
// and background workers into one running process.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ZaparooProject/zaparoo-snap/pkg/api"
	"github.com/ZaparooProject/zaparoo-snap/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-snap/pkg/capture"
	"github.com/ZaparooProject/zaparoo-snap/pkg/config"
	"github.com/ZaparooProject/zaparoo-snap/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-snap/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-snap/pkg/service/discovery"
	"github.com/ZaparooProject/zaparoo-snap/pkg/service/publishers"
	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/ZaparooProject/zaparoo-snap/pkg/volume"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	notificationQueueSize = 100
	subscriberBufferSize  = 100
)

// Deps are the collaborators Start does not build from config. Zero
// values fall back to the host volume, real clock and real executor, and a
// listener on the configured address.
type Deps struct {
	Volume   storage.Volume
	Clock    clockwork.Clock
	Executor command.Executor
	Listener net.Listener
}

func (d *Deps) fill(cfg *config.Instance) {
	if d.Volume == nil {
		d.Volume = volume.NewHost(cfg.StorageBaseDir(), cfg.StorageDevice())
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Executor == nil {
		d.Executor = &command.RealExecutor{}
	}
}

// Start brings the service up. stop cancels every worker and waits for
// them; done is closed once they have all exited, including after a fatal
// server error.
//
//nolint:gocritic // deps copied so fill can default fields
func Start(
	cfg *config.Instance,
	deps Deps,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)
	deps.fill(cfg)

	ln := deps.Listener
	if ln == nil {
		addr := cfg.APIListen()
		var lc net.ListenConfig
		ln, err = lc.Listen(context.Background(), "tcp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	store := storage.NewStore(deps.Volume, cfg.MaxFilesToKeep())
	capturer := capture.NewCommandCapturer(
		store, deps.Executor, deps.Clock, capture.OptionsFromConfig(cfg),
	)

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	ns := make(chan models.Notification, notificationQueueSize)
	notifBroker := broker.NewBroker(ns)
	apiEvents, _ := notifBroker.Subscribe(subscriberBufferSize)
	activePublishers := startPublishers(cfg, notifBroker)

	g.Go(func() error {
		return notifBroker.Run(gctx)
	})

	log.Info().Msg("starting API service")
	server := api.NewServer(cfg, store, capturer, deps.Clock, ns, apiEvents)
	g.Go(func() error {
		return server.Serve(gctx, ln)
	})

	log.Info().Msg("starting retention scheduler")
	retention := NewRetention(store, deps.Clock, ns, cfg.RetentionInterval(), cfg.WatchStorage())
	g.Go(func() error {
		return retention.Run(gctx)
	})

	log.Info().Msg("starting card watcher")
	watcher := volume.NewWatcher(deps.Volume, deps.Clock, volume.DefaultRescanInterval)
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		watchCard(gctx, watcher.Changes(), store, ns, retention)
		return nil
	})

	log.Info().Msg("starting mDNS discovery service")
	discoveryService := discovery.New(cfg, deps.Clock)
	if discoveryErr := discoveryService.Start(); discoveryErr != nil {
		log.Error().Err(discoveryErr).Msg("mDNS discovery failed to start (continuing without discovery)")
	}

	doneCh := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = g.Wait()
		if waitErr != nil {
			log.Error().Err(waitErr).Msg("service stopped with error")
		}
		log.Info().Msg("service context cancelled, running cleanup")

		discoveryService.Stop()
		for _, p := range activePublishers {
			p.Stop()
		}
		cancel()

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		cancel()
		<-doneCh
		if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
			return waitErr
		}
		return nil
	}
	return stop, doneCh, nil
}

// startPublishers gives each enabled MQTT publisher its own broker
// subscription. A publisher that cannot connect is skipped.
func startPublishers(cfg *config.Instance, b *broker.Broker) []*publishers.MQTTPublisher {
	var active []*publishers.MQTTPublisher
	for _, mqttCfg := range cfg.MQTTPublishers() {
		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", mqttCfg.Broker, mqttCfg.Topic)

		sub, id := b.Subscribe(subscriberBufferSize)
		p := publishers.NewMQTTPublisher(mqttCfg.Broker, mqttCfg.Topic, mqttCfg.Filter)
		if err := p.Start(sub); err != nil {
			log.Error().Err(err).Msgf("failed to start MQTT publisher for %s", mqttCfg.Broker)
			b.Unsubscribe(id)
			continue
		}
		active = append(active, p)
	}

	if len(active) > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", len(active))
	}
	return active
}
