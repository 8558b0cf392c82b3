// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package rs485

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/modbus"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
)

const registersPerValue = 2

type rtuConfig struct {
	address  string
	baudRate int
	dataBits int
	stopBits int
	parity   string
	slaveID  byte
	timeout  time.Duration
}

func newRTUConfig(port string, p Params, timeout time.Duration) rtuConfig {
	return rtuConfig{
		address:  port,
		baudRate: p.BaudRate,
		dataBits: p.ByteSize,
		stopBits: p.StopBits,
		parity:   p.Parity,
		slaveID:  byte(p.SlaveID),
		timeout:  timeout,
	}
}

// registerReader is the part of a Modbus client the receive loop needs.
type registerReader interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// connectRTU opens an RTU master on the configured port.
var connectRTU = func(config rtuConfig) (registerReader, io.Closer, error) {
	rtuHandler := modbus.NewRTUClientHandler(config.address)
	rtuHandler.BaudRate = config.baudRate
	rtuHandler.DataBits = config.dataBits
	rtuHandler.StopBits = config.stopBits
	rtuHandler.Parity = config.parity
	rtuHandler.SlaveId = config.slaveID
	rtuHandler.Timeout = config.timeout
	if err := rtuHandler.Connect(); err != nil {
		return nil, nil, fmt.Errorf("Couldn't connect: %v", err)
	}
	return modbus.NewClient(rtuHandler), rtuHandler, nil
}

// Receive polls the slave for a float32 value every poll interval until
// ctx is done.
func (r *Runner) Receive(ctx context.Context, p Params, emit models.Emitter) error {
	client, closer, err := connectRTU(newRTUConfig(r.Port, p, r.Timeout))
	if err != nil {
		r.lc.Error(fmt.Sprintf("RS485 receive: %v", err))
		emit("Failed to open serial port. Check USB and permissions.")
		return nil
	}
	defer closer.Close()
	emit("Connected successfully.")

	for {
		b, err := client.ReadHoldingRegisters(uint16(p.RegisterAddress), registersPerValue)
		if err == nil {
			var f float32
			if f, err = DecodeFloat32(b); err == nil {
				v := Round3(float64(f) * p.ScalingFactor)
				emit(fmt.Sprintf("Register %d: %s", p.RegisterAddress, FormatValue(v)))
			}
		}
		if err != nil {
			r.lc.Debug(fmt.Sprintf("RS485 read of register %d failed: %v", p.RegisterAddress, err))
			emit(fmt.Sprintf("Error while fetching data from register %d", p.RegisterAddress))
		}
		if err := hal.Sleep(ctx, r.PollInterval); err != nil {
			return nil
		}
	}
}
