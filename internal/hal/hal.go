// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package hal opens the host buses, pins and serial ports used by the
// device tests. Every opener is a variable so that tests can swap in the
// periph.io playback fakes or an in-memory serial port.
package hal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the periph.io host drivers once.
func Init() error {
	initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			initErr = errors.Wrap(err, "periph host initialization failed")
		}
	})
	return initErr
}

// OpenI2C opens an I2C bus by name, e.g. "1" for /dev/i2c-1.
var OpenI2C = func(name string) (i2c.BusCloser, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open I2C bus %q", name)
	}
	return bus, nil
}

// OpenSPI opens an SPI port by name, e.g. "/dev/spidev0.0".
var OpenSPI = func(name string) (spi.PortCloser, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open SPI port %q", name)
	}
	return port, nil
}

// PinByName looks up a GPIO pin, e.g. "GPIO18".
var PinByName = func(name string) (gpio.PinIO, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("no GPIO pin named %q", name)
	}
	return p, nil
}

// OpenSerial opens a serial port with the given mode.
var OpenSerial = func(name string, mode *serial.Mode) (serial.Port, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open serial port %s", name)
	}
	return port, nil
}

// ListSerialPorts enumerates the serial ports present on the host.
var ListSerialPorts = func() ([]*enumerator.PortDetails, error) {
	return enumerator.GetDetailedPortsList()
}

// ReadFile reads a sysfs attribute or any other small file.
var ReadFile = os.ReadFile

// Glob matches sysfs paths, e.g. 1-Wire slave directories.
var Glob = filepath.Glob

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
