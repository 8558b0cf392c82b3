// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package gpiodev

import (
	"context"
	"fmt"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// speed of sound halved, in cm/s
const halfSpeedOfSound = 17150

var ErrNoEcho = errors.New("no echo received")

func distanceCM(pulse time.Duration) float64 {
	return pulse.Seconds() * halfSpeedOfSound
}

// Ultrasonic measures distance with an HC-SR04 style sensor.
type Ultrasonic struct {
	Trigger string
	Echo    string
	// EchoTimeout bounds the wait for each echo edge.
	EchoTimeout time.Duration
}

func NewUltrasonic(trigger, echo string) *Ultrasonic {
	return &Ultrasonic{Trigger: trigger, Echo: echo, EchoTimeout: 100 * time.Millisecond}
}

// waitLevel waits for edges on p until it reads l.
func (u *Ultrasonic) waitLevel(p gpio.PinIO, l gpio.Level) error {
	deadline := time.Now().Add(u.EchoTimeout)
	for p.Read() != l {
		left := time.Until(deadline)
		if left <= 0 || !p.WaitForEdge(left) {
			return ErrNoEcho
		}
	}
	return nil
}

// Measure returns the distance to the nearest object in cm.
func (u *Ultrasonic) Measure(ctx context.Context) (float64, error) {
	trig, err := hal.PinByName(u.Trigger)
	if err != nil {
		return 0, err
	}
	echo, err := hal.PinByName(u.Echo)
	if err != nil {
		return 0, err
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return 0, errors.Wrapf(err, "could not configure echo pin %s", u.Echo)
	}
	defer echo.In(gpio.PullDown, gpio.NoEdge)
	if err := trig.Out(gpio.Low); err != nil {
		return 0, errors.Wrapf(err, "could not drive trigger pin %s", u.Trigger)
	}
	if err := hal.Sleep(ctx, 2*time.Microsecond); err != nil {
		return 0, err
	}
	trig.Out(gpio.High)
	time.Sleep(10 * time.Microsecond)
	trig.Out(gpio.Low)

	if err := u.waitLevel(echo, gpio.High); err != nil {
		return 0, err
	}
	start := time.Now()
	if err := u.waitLevel(echo, gpio.Low); err != nil {
		return 0, err
	}
	return distanceCM(time.Since(start)), nil
}

func (u *Ultrasonic) RunCycle(ctx context.Context, emit models.Emitter) error {
	d, err := u.Measure(ctx)
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("Distance: %.2f cm", d))
	return nil
}
