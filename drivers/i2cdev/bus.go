// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package i2cdev provides the I2C device tests of the jig: a bus scan and
// the BH1750, MLX90614 and SSD1306 OLED modules.
package i2cdev

import (
	"fmt"
	"sync"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"periph.io/x/conn/v3/i2c"
)

// First and last 7-bit addresses probed by a scan; the rest are reserved.
const (
	FirstAddress = 0x03
	LastAddress  = 0x77
)

// busHolder opens the bus on first use so that a missing bus shows up as a
// failed cycle instead of a failed run.
type busHolder struct {
	mutex sync.Mutex
	name  string
	bus   i2c.BusCloser
}

func (b *busHolder) get() (i2c.Bus, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.bus == nil {
		bus, err := hal.OpenI2C(b.name)
		if err != nil {
			return nil, err
		}
		b.bus = bus
	}
	return b.bus, nil
}

func (b *busHolder) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}

// Scan probes every address between FirstAddress and LastAddress with a
// single byte read and returns those that acknowledged.
func Scan(bus i2c.Bus) []uint16 {
	var found []uint16
	r := make([]byte, 1)
	for addr := uint16(FirstAddress); addr <= LastAddress; addr++ {
		if err := bus.Tx(addr, nil, r); err == nil {
			found = append(found, addr)
		}
	}
	return found
}

// ScanBus opens the named bus, scans it and closes it again.
func ScanBus(name string) ([]uint16, error) {
	bus, err := hal.OpenI2C(name)
	if err != nil {
		return nil, err
	}
	defer bus.Close()
	return Scan(bus), nil
}

// FormatAddresses renders addresses as "[0x23 0x3c]".
func FormatAddresses(addrs []uint16) string {
	s := make([]string, len(addrs))
	for i, a := range addrs {
		s[i] = fmt.Sprintf("0x%02x", a)
	}
	return fmt.Sprintf("%v", s)
}
