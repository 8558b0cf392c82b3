// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package adcdev reads the analog sockets through an MCP3008 converter.
package adcdev

import (
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// VRef is the converter reference voltage on the jig.
	VRef     = 3.3
	MaxValue = 1023

	mcp3008Speed = 1350 * physic.KiloHertz
)

// MCP3008 is a 10-bit, 8 channel SPI ADC.
type MCP3008 struct {
	Port string
}

// Read performs a single-ended conversion on channel ch.
func (a MCP3008) Read(ch int) (int, error) {
	if ch < 0 || ch > 7 {
		return 0, errors.Errorf("MCP3008 channel %d out of range", ch)
	}
	port, err := hal.OpenSPI(a.Port)
	if err != nil {
		return 0, err
	}
	defer port.Close()
	c, err := port.Connect(mcp3008Speed, spi.Mode0, 8)
	if err != nil {
		return 0, errors.Wrap(err, "MCP3008 connect failed")
	}
	w := []byte{0x01, byte(0x80 | ch<<4), 0x00}
	r := make([]byte, len(w))
	if err := c.Tx(w, r); err != nil {
		return 0, errors.Wrapf(err, "MCP3008 read of channel %d failed", ch)
	}
	return int(r[1]&0x03)<<8 | int(r[2]), nil
}

// Volts converts a raw reading to volts.
func Volts(raw int) float64 {
	return float64(raw) * VRef / MaxValue
}
