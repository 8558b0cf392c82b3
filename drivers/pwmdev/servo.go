// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package pwmdev

import (
	"context"
	"fmt"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const servoFrequency = 50 * physic.Hertz

// Servo swings a hobby servo to 0° and then to 180°.
type Servo struct {
	Pin string
	// Settle is how long each position is held.
	Settle time.Duration
}

func NewServo(pin string) *Servo {
	return &Servo{Pin: pin, Settle: time.Second}
}

func (s *Servo) setAngle(ctx context.Context, p gpio.PinIO, angle float64) error {
	if err := output(p, ServoDuty(angle), servoFrequency); err != nil {
		return err
	}
	if err := hal.Sleep(ctx, s.Settle); err != nil {
		return err
	}
	return output(p, 0, servoFrequency)
}

func (s *Servo) RunCycle(ctx context.Context, emit models.Emitter) error {
	pins, err := lookupPins(s.Pin)
	if err != nil {
		return err
	}
	p := pins[0]
	defer output(p, 0, servoFrequency)

	emit("Trying Servo Motor rotation...")
	for _, angle := range []float64{0, 180} {
		emit(fmt.Sprintf("Rotating to %.0f degrees", angle))
		if err := s.setAngle(ctx, p, angle); err != nil {
			return err
		}
		if err := hal.Sleep(ctx, s.Settle); err != nil {
			return err
		}
	}
	emit("Servo motor test completed.")
	return nil
}
