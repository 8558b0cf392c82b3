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
	"periph.io/x/conn/v3/physic"
)

const fadeFrequency = 1 * physic.KiloHertz

// LEDFader ramps an LED from off to full brightness and back.
type LEDFader struct {
	Pin       string
	Step      float64
	StepDelay time.Duration
}

func NewLEDFader(pin string) *LEDFader {
	return &LEDFader{Pin: pin, Step: 5, StepDelay: 20 * time.Millisecond}
}

func (l *LEDFader) RunCycle(ctx context.Context, emit models.Emitter) error {
	pins, err := lookupPins(l.Pin)
	if err != nil {
		return err
	}
	p := pins[0]
	defer output(p, 0, fadeFrequency)

	ramp := func(from, to, step float64) error {
		for d := from; (step > 0 && d <= to) || (step < 0 && d >= to); d += step {
			if err := output(p, d, fadeFrequency); err != nil {
				return err
			}
			if err := hal.Sleep(ctx, l.StepDelay); err != nil {
				return err
			}
		}
		return nil
	}
	if err := ramp(0, 100, l.Step); err != nil {
		return err
	}
	if err := ramp(100, 0, -l.Step); err != nil {
		return err
	}
	emit("LED fading cycle complete")
	return nil
}
