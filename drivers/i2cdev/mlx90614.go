// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package i2cdev

import (
	"context"
	"fmt"

	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
)

const (
	MLX90614Address = 0x5a

	mlxAmbientRAM = 0x06
	mlxObjectRAM  = 0x07
)

// MLX90614 is the contactless IR thermometer.
type MLX90614 struct {
	busHolder
	Addr uint16
}

func NewMLX90614(bus string) *MLX90614 {
	return &MLX90614{busHolder: busHolder{name: bus}, Addr: MLX90614Address}
}

// readCelsius reads a RAM register as an SMBus word (low, high, PEC).
func (s *MLX90614) readCelsius(dev *i2c.Dev, reg byte) (float64, error) {
	r := make([]byte, 3)
	if err := dev.Tx([]byte{reg}, r); err != nil {
		return 0, errors.Wrapf(err, "MLX90614 read of register 0x%02x failed", reg)
	}
	raw := uint16(r[0]) | uint16(r[1])<<8
	if raw&0x8000 != 0 {
		return 0, errors.Errorf("MLX90614 register 0x%02x reports an error flag", reg)
	}
	return float64(raw)*0.02 - 273.15, nil
}

// Temperatures returns the ambient and object temperature in °C.
func (s *MLX90614) Temperatures() (ambient, object float64, err error) {
	bus, err := s.get()
	if err != nil {
		return 0, 0, err
	}
	dev := &i2c.Dev{Bus: bus, Addr: s.Addr}
	if ambient, err = s.readCelsius(dev, mlxAmbientRAM); err != nil {
		return 0, 0, err
	}
	if object, err = s.readCelsius(dev, mlxObjectRAM); err != nil {
		return 0, 0, err
	}
	return ambient, object, nil
}

func (s *MLX90614) RunCycle(ctx context.Context, emit models.Emitter) error {
	ambient, object, err := s.Temperatures()
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("Ambient: %.2f°C<br>Object: %.2f°C", ambient, object))
	return nil
}
