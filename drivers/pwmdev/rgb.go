// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package pwmdev

import (
	"context"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
)

const rgbFrequency = 1 * physic.KiloHertz

// RGBLED lights the red, green and blue channels one after the other.
type RGBLED struct {
	Pins []string
	Hold time.Duration
}

func NewRGBLED(pins []string) *RGBLED {
	return &RGBLED{Pins: pins, Hold: time.Second}
}

func (r *RGBLED) RunCycle(ctx context.Context, emit models.Emitter) error {
	if len(r.Pins) != 3 {
		return errors.Errorf("RGB LED needs 3 pins, got %d", len(r.Pins))
	}
	pins, err := lookupPins(r.Pins...)
	if err != nil {
		return err
	}
	defer func() {
		for _, p := range pins {
			output(p, 0, rgbFrequency)
		}
	}()

	for _, p := range pins {
		if err := output(p, 100, rgbFrequency); err != nil {
			return err
		}
		if err := hal.Sleep(ctx, r.Hold); err != nil {
			return err
		}
		if err := output(p, 0, rgbFrequency); err != nil {
			return err
		}
	}
	emit("RGB LED cycle complete (red, green, blue)")
	return nil
}
