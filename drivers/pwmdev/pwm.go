// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package pwmdev exercises the PWM sockets: a fading LED, a hobby servo
// and an RGB LED.
package pwmdev

import (
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Duty converts a percentage in [0, 100] to a periph duty cycle.
func Duty(percent float64) gpio.Duty {
	if percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return gpio.DutyMax
	}
	return gpio.Duty(percent / 100 * float64(gpio.DutyMax))
}

// ServoDuty returns the duty percentage that moves a 50 Hz servo to angle.
func ServoDuty(angle float64) float64 {
	return angle/18 + 2
}

// output drives a pin with PWM, or plain levels at the extremes.
func output(p gpio.PinIO, percent float64, f physic.Frequency) error {
	var err error
	switch {
	case percent <= 0:
		err = p.Out(gpio.Low)
	default:
		err = p.PWM(Duty(percent), f)
	}
	if err != nil {
		return errors.Wrapf(err, "PWM on %s failed", p.Name())
	}
	return nil
}

func lookupPins(names ...string) ([]gpio.PinIO, error) {
	pins := make([]gpio.PinIO, len(names))
	for i, n := range names {
		p, err := hal.PinByName(n)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}
	return pins, nil
}
