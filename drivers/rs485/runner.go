// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package rs485

import (
	"context"
	"fmt"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/pkg/models"
)

// Runner executes RS-485 runs against one serial adapter.
type Runner struct {
	lc           logger.LoggingClient
	Port         string
	PollInterval time.Duration
	Timeout      time.Duration
	Version      string
}

func NewRunner(lc logger.LoggingClient, port string, poll, timeout time.Duration, version string) *Runner {
	return &Runner{lc: lc, Port: port, PollInterval: poll, Timeout: timeout, Version: version}
}

// Run validates p and starts the requested mode. Invalid settings are
// reported on the stream.
func (r *Runner) Run(ctx context.Context, p Params, emit models.Emitter) error {
	if err := p.Validate(); err != nil {
		emit(fmt.Sprintf("Invalid RS485 settings: %v", err))
		return nil
	}
	r.lc.Info(fmt.Sprintf("RS485 %s on %s at %d-%d%s%d, slave %d", p.Mode, r.Port, p.BaudRate, p.ByteSize, p.Parity, p.StopBits, p.SlaveID))
	if p.Mode == ModeTransmit {
		return r.Transmit(ctx, p, emit)
	}
	return r.Receive(ctx, p, emit)
}
