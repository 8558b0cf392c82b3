// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/gorilla/mux"
	"github.com/jigworks/device-testjig-go/drivers/custom"
	"github.com/jigworks/device-testjig-go/drivers/rs485"
	"github.com/jigworks/device-testjig-go/internal/cache"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/internal/instances"
	"github.com/jigworks/device-testjig-go/internal/stream"
	"github.com/jigworks/device-testjig-go/internal/supervisor"
	"github.com/pkg/errors"
)

const maxCustomBody = 64 << 10

// Controller serves the test jig endpoints.
type Controller struct {
	LoggingClient logger.LoggingClient
	Supervisor    *supervisor.Supervisor
	Registry      *instances.Registry
	Dispatcher    *Dispatcher
	RS485         *rs485.Runner
	Custom        *custom.Manager
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", common.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// PinConnectionHandler returns the wiring of a catalog device. A miss is
// answered with an error object and status 200, which the pages rely on.
func (c *Controller) PinConnectionHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	protocol, device := vars[common.ProtocolVar], vars[common.DeviceVar]

	d, ok := cache.Devices().ForName(protocol, device)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{
			"error": fmt.Sprintf("Pin connection not defined for protocol '%s' and device '%s'.", protocol, device),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"protocol":        protocol,
		"device":          device,
		"pin_connections": d.PinMap(),
	})
}

// RunTestHandler streams the device test until the client goes away or
// the test is stopped.
func (c *Controller) RunTestHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	protocol, device := vars[common.ProtocolVar], vars[common.DeviceVar]

	run := c.Supervisor.Begin(req.Context(), common.RunKindTest, common.RunKindSoak)
	defer run.Done()

	sw, err := stream.NewWriter(w, run.ID)
	if err != nil {
		c.LoggingClient.Error(err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	c.LoggingClient.Info(fmt.Sprintf("RUN-TEST: %s %s started (run %s)", protocol, device, run.ID))
	c.Dispatcher.Run(run.Ctx, protocol, device, sw.Send)
	c.LoggingClient.Info(fmt.Sprintf("RUN-TEST: %s %s ended (run %s)", protocol, device, run.ID))
}

// StopTestHandler cancels the running test and tears down the persistent
// SPI display.
func (c *Controller) StopTestHandler(w http.ResponseWriter, req *http.Request) {
	if c.Supervisor.Stop(common.RunKindTest) {
		c.LoggingClient.Info("STOP-TEST: test run cancelled")
	} else {
		c.LoggingClient.Info("STOP-TEST: no test run active")
	}

	released, err := c.Registry.Release(common.ProtocolSPI)
	switch {
	case err != nil:
		c.LoggingClient.Error(fmt.Sprintf("STOP-TEST: %v", err))
	case released:
		c.LoggingClient.Info("STOP-TEST: SPI OLED instance released; display cleared")
	default:
		c.LoggingClient.Info("STOP-TEST: no SPI OLED instance stored")
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": "Test stopped"})
}

// RunRS485Handler parses the RS-485 settings from the query and streams
// the run.
func (c *Controller) RunRS485Handler(w http.ResponseWriter, req *http.Request) {
	p, err := rs485.ParseParams(req.URL.Query())
	if err == rs485.ErrInvalidMode {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run := c.Supervisor.Begin(req.Context(), common.RunKindRS485, common.RunKindSoak)
	defer run.Done()

	sw, err := stream.NewWriter(w, run.ID)
	if err != nil {
		c.LoggingClient.Error(err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	c.LoggingClient.Info(fmt.Sprintf("RUN-RS485: %s started (run %s)", p.Mode, run.ID))
	if err := c.RS485.Run(run.Ctx, p, sw.Send); err != nil {
		c.LoggingClient.Error(fmt.Sprintf("RUN-RS485: %v", err))
	}
	c.LoggingClient.Info(fmt.Sprintf("RUN-RS485: %s ended (run %s)", p.Mode, run.ID))
}

func (c *Controller) StopRS485Handler(w http.ResponseWriter, req *http.Request) {
	if c.Supervisor.Stop(common.RunKindRS485) {
		c.LoggingClient.Info("STOP-RS485: run cancelled")
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "RS485 test stopped"})
}

// CustomHandler runs one operation of a custom bus session.
func (c *Controller) CustomHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	protocol, op := vars[common.ProtocolVar], vars[common.OperationVar]

	body, err := io.ReadAll(io.LimitReader(req.Body, maxCustomBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, custom.Result{"success": false, "message": err.Error()})
		return
	}

	res, err := c.Custom.Do(protocol, op, body)
	if err != nil {
		status := http.StatusBadRequest
		switch errors.Cause(err) {
		case custom.ErrUnknownProtocol, custom.ErrUnknownOperation:
			status = http.StatusNotFound
		}
		c.LoggingClient.Warn(fmt.Sprintf("CUSTOM: %s %s rejected: %v", protocol, op, err))
		writeJSON(w, status, custom.Result{"success": false, "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DevicesHandler returns the device catalog.
func (c *Controller) DevicesHandler(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, cache.Devices().All())
}

type serialPort struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// SerialPortsHandler lists the serial ports of the host, e.g. to find the
// RS-485 adapter.
func (c *Controller) SerialPortsHandler(w http.ResponseWriter, req *http.Request) {
	details, err := hal.ListSerialPorts()
	if err != nil {
		c.LoggingClient.Error(fmt.Sprintf("Serial port enumeration failed: %v", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ports := make([]serialPort, 0, len(details))
	for _, d := range details {
		ports = append(ports, serialPort{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	writeJSON(w, http.StatusOK, ports)
}

func PingHandler(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "pong")
}
