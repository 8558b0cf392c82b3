// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package testjig implements the HTTP service of the hardware test jig.
// It wires the streaming test handlers, the RS-485 runner, the custom bus
// sessions and the soak scheduler to one router.
package testjig

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/gorilla/mux"
	"github.com/jigworks/device-testjig-go/drivers/custom"
	"github.com/jigworks/device-testjig-go/drivers/rs485"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/handler"
	"github.com/jigworks/device-testjig-go/internal/instances"
	"github.com/jigworks/device-testjig-go/internal/scheduler"
	"github.com/jigworks/device-testjig-go/internal/supervisor"
	"github.com/pkg/errors"
)

const shutdownTimeout = 5 * time.Second

var svc *Service

// Service is the running jig.
type Service struct {
	svcInfo    common.ServiceInfo
	config     *common.Config
	lc         logger.LoggingClient
	r          *mux.Router
	server     *http.Server
	supervisor *supervisor.Supervisor
	registry   *instances.Registry
	dispatcher *handler.Dispatcher
	controller *handler.Controller
	scheduler  *scheduler.Manager
	stopped    bool
}

// Name returns the name of this service.
func (s *Service) Name() string {
	return common.ServiceName
}

// Version returns the version number of this service.
func (s *Service) Version() string {
	return common.ServiceVersion
}

// NewService builds the jig service from config. The logging client must
// be initialized first.
func NewService(config *common.Config, lc logger.LoggingClient) (*Service, error) {
	if config == nil {
		return nil, errors.New("configuration must not be nil")
	}
	if lc == nil {
		return nil, errors.New("logging client must not be nil")
	}

	s := &Service{svcInfo: config.Service, config: config, lc: lc}
	s.supervisor = supervisor.New()
	s.registry = instances.NewRegistry(lc)
	s.dispatcher = handler.NewDispatcher(lc, config.Hardware, config.Tests, s.registry)
	s.controller = &handler.Controller{
		LoggingClient: lc,
		Supervisor:    s.supervisor,
		Registry:      s.registry,
		Dispatcher:    s.dispatcher,
		RS485: rs485.NewRunner(lc, config.RS485.Port, config.RS485.PollDuration(),
			config.RS485.TimeoutDuration(), common.ServiceVersion),
		Custom: custom.NewManager(lc, s.registry, config.Hardware),
	}
	s.scheduler = scheduler.NewManager(lc, s.dispatcher, s.supervisor)

	s.r = mux.NewRouter()
	initRestRoutes(s)
	initUpdate(s)

	svc = s
	return s, nil
}

// RunningService returns the service created by NewService.
func RunningService() *Service {
	return svc
}

// Router exposes the router, e.g. for tests and extra routes.
func (s *Service) Router() *mux.Router {
	return s.r
}

// Start starts the soak scheduler and the HTTP server. Server errors are
// sent to errChan.
func (s *Service) Start(errChan chan error) error {
	s.scheduler.StartScheduler(s.config.Schedules)

	s.server = &http.Server{
		Addr:        s.svcInfo.Host + common.Colon + strconv.Itoa(s.svcInfo.Port),
		Handler:     s.r,
		ReadTimeout: time.Duration(s.svcInfo.ReadTimeout) * time.Millisecond,
	}
	s.lc.Info(fmt.Sprintf("*Service Start() called, name=%s, version=%s", s.Name(), s.Version()))
	s.lc.Info(fmt.Sprintf("Listening on %s, pages from %s", s.server.Addr, s.svcInfo.WebRoot))

	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	return nil
}

// Stop cancels every run, releases every hardware instance and stops the
// scheduler and the HTTP server. With force the server is closed without
// waiting for open connections, which streaming runs keep open.
func (s *Service) Stop(force bool) error {
	if s.stopped {
		return nil
	}
	s.stopped = true

	s.supervisor.StopAll()
	if err := s.registry.ReleaseAll(); err != nil {
		s.lc.Error(fmt.Sprintf("Releasing hardware instances: %v", err))
	}
	s.scheduler.StopScheduler()

	if s.server == nil {
		return nil
	}
	if force {
		return s.server.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
