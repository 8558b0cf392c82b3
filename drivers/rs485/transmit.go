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

	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	rmodbus "github.com/rolfl/modbus"
)

// slaveBus is the part of a rolfl Modbus bus the transmit mode needs.
type slaveBus interface {
	SetServer(unitID int, server rmodbus.Server)
	Close() error
}

// openSlaveBus opens the RTU port for serving. The bus only frames 8 data
// bits.
var openSlaveBus = func(port string, p Params) (slaveBus, error) {
	if p.ByteSize != 8 {
		return nil, errors.Errorf("%d data bits are not supported, only 8", p.ByteSize)
	}
	return rmodbus.NewRTU(port, p.BaudRate, int(p.Parity[0]), p.StopBits, 0, false)
}

// Transmit serves the encoded register value as a Modbus slave until the
// run timeout or ctx is done.
func (r *Runner) Transmit(ctx context.Context, p Params, emit models.Emitter) error {
	regs, err := EncodeRegisters(p.CountMode, p.DataType, p.RegisterValue)
	if err == ErrUnsupportedCombination {
		emit(err.Error())
		return nil
	}
	if err != nil {
		emit(fmt.Sprintf("Failed to start Modbus server: %v", err))
		return nil
	}

	emit("RS485 Transmission - Starting as Slave Device")
	emit(fmt.Sprintf("Slave ID: %d", p.SlaveID))
	emit(fmt.Sprintf("Register Address: %d", p.RegisterAddress))
	emit(fmt.Sprintf("Register Value: %s", FormatValue(p.RegisterValue)))
	emit(fmt.Sprintf("Timeout: %ds", p.Timeout))

	server, err := r.newServer(p, regs)
	if err != nil {
		emit(fmt.Sprintf("Failed to start Modbus server: %v", err))
		return nil
	}
	bus, err := openSlaveBus(r.Port, p)
	if err != nil {
		r.lc.Error(fmt.Sprintf("RS485 transmit: %v", err))
		emit(fmt.Sprintf("Failed to start Modbus server: %v", err))
		return nil
	}
	defer bus.Close()
	bus.SetServer(p.SlaveID, server)
	emit("Server ready and listening...")

	timer := time.NewTimer(time.Duration(p.Timeout) * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
		emit(fmt.Sprintf("Test Timeout (%ds reached)", p.Timeout))
	case <-ctx.Done():
		r.lc.Info("RS485 transmit stopped")
	}
	return nil
}

func (r *Runner) newServer(p Params, regs []uint16) (rmodbus.Server, error) {
	server, err := rmodbus.NewServer([]byte{byte(p.SlaveID)}, []string{"TestJig", "RS485 transmit", r.Version})
	if err != nil {
		return nil, err
	}
	server.RegisterHoldings(p.RegisterAddress+len(regs), func(_ rmodbus.Server, _ rmodbus.Atomic, address int, values []int, current []int) ([]int, error) {
		r.lc.Debug(fmt.Sprintf("RS485 master wrote %v at register %d", values, address))
		return values, nil
	})
	values := make([]int, len(regs))
	for i, reg := range regs {
		values[i] = int(reg)
	}
	if err := server.WriteHoldingsAtomic(p.RegisterAddress, values); err != nil {
		return nil, err
	}
	return server, nil
}
