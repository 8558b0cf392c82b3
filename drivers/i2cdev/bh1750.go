// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package i2cdev

import (
	"context"
	"fmt"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
)

const (
	BH1750Address = 0x23

	bh1750PowerOn        = 0x01
	bh1750OneTimeHighRes = 0x20
)

// BH1750 measures ambient light in lux.
type BH1750 struct {
	busHolder
	Addr         uint16
	measureDelay time.Duration
}

func NewBH1750(bus string) *BH1750 {
	return &BH1750{busHolder: busHolder{name: bus}, Addr: BH1750Address, measureDelay: 180 * time.Millisecond}
}

// Lux performs a one time high resolution measurement.
func (s *BH1750) Lux(ctx context.Context) (float64, error) {
	bus, err := s.get()
	if err != nil {
		return 0, err
	}
	dev := &i2c.Dev{Bus: bus, Addr: s.Addr}
	if err := dev.Tx([]byte{bh1750PowerOn}, nil); err != nil {
		return 0, errors.Wrap(err, "BH1750 power on failed")
	}
	if err := dev.Tx([]byte{bh1750OneTimeHighRes}, nil); err != nil {
		return 0, errors.Wrap(err, "BH1750 measurement request failed")
	}
	if err := hal.Sleep(ctx, s.measureDelay); err != nil {
		return 0, err
	}
	r := make([]byte, 2)
	if err := dev.Tx(nil, r); err != nil {
		return 0, errors.Wrap(err, "BH1750 read failed")
	}
	return float64(uint16(r[0])<<8|uint16(r[1])) / 1.2, nil
}

func (s *BH1750) RunCycle(ctx context.Context, emit models.Emitter) error {
	lux, err := s.Lux(ctx)
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("Light Intensity: %.2f lux", lux))
	return nil
}
