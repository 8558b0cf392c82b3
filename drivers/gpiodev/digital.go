// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package gpiodev holds the digital GPIO tests and the sysfs backed
// DHT11 and DS18B20 sensors.
package gpiodev

import (
	"context"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// LED blinks an LED once per cycle.
type LED struct {
	Pin    string
	OnTime time.Duration
}

func NewLED(pin string) *LED {
	return &LED{Pin: pin, OnTime: 500 * time.Millisecond}
}

func (l *LED) RunCycle(ctx context.Context, emit models.Emitter) error {
	p, err := hal.PinByName(l.Pin)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.High); err != nil {
		return errors.Wrapf(err, "could not drive %s high", l.Pin)
	}
	serr := hal.Sleep(ctx, l.OnTime)
	if err := p.Out(gpio.Low); err != nil {
		return errors.Wrapf(err, "could not drive %s low", l.Pin)
	}
	if serr != nil {
		return serr
	}
	emit("LED toggled ON and OFF")
	return nil
}

// Button reports the state of a push button wired to ground.
type Button struct {
	Pin string
}

func (b *Button) RunCycle(ctx context.Context, emit models.Emitter) error {
	p, err := hal.PinByName(b.Pin)
	if err != nil {
		return err
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return errors.Wrapf(err, "could not configure %s as input", b.Pin)
	}
	if p.Read() == gpio.Low {
		emit("Button PRESSED")
	} else {
		emit("Button RELEASED")
	}
	return nil
}
