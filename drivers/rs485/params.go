// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package rs485 runs the Modbus RTU loopback tests of the RS-485 socket:
// a polling master in receive mode and a slave serving one value in
// transmit mode.
package rs485

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	ModeReceive  = "receive"
	ModeTransmit = "transmit"
)

// ErrInvalidMode is returned for a mode other than receive or transmit.
var ErrInvalidMode = errors.New("Invalid mode.")

// Params are the settings of one RS-485 run, taken from the query string.
type Params struct {
	Mode            string
	BaudRate        int
	Parity          string
	SlaveID         int
	RegisterAddress int
	CountMode       int
	DataType        string
	StopBits        int
	ByteSize        int
	ScalingFactor   float64
	Timeout         int
	RegisterValue   float64
}

func defaultParams() Params {
	return Params{
		SlaveID:       1,
		CountMode:     1,
		DataType:      "uint",
		StopBits:      1,
		ByteSize:      8,
		ScalingFactor: 1.0,
		Timeout:       30,
		RegisterValue: 220.0,
	}
}

// ParseParams reads the run parameters from q. A missing or unknown
// mode yields ErrInvalidMode; malformed numbers and missing required
// fields yield any other error.
func ParseParams(q url.Values) (Params, error) {
	p := defaultParams()
	p.Mode = strings.ToLower(q.Get("mode"))
	if p.Mode != ModeReceive && p.Mode != ModeTransmit {
		return p, ErrInvalidMode
	}

	ints := []struct {
		name     string
		dst      *int
		required bool
	}{
		{"baudRate", &p.BaudRate, true},
		{"slaveId", &p.SlaveID, false},
		{"registerAddress", &p.RegisterAddress, false},
		{"countMode", &p.CountMode, false},
		{"stopbits", &p.StopBits, false},
		{"bytesize", &p.ByteSize, false},
		{"timeout", &p.Timeout, false},
	}
	for _, f := range ints {
		s := q.Get(f.name)
		if s == "" {
			if f.required {
				return p, errors.Errorf("missing parameter %s", f.name)
			}
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return p, errors.Errorf("invalid integer for %s: %q", f.name, s)
		}
		*f.dst = v
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"scalingFactor", &p.ScalingFactor},
		{"registerValue", &p.RegisterValue},
	}
	for _, f := range floats {
		s := q.Get(f.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return p, errors.Errorf("invalid number for %s: %q", f.name, s)
		}
		*f.dst = v
	}

	p.Parity = strings.ToUpper(q.Get("parity"))
	if p.Parity == "" {
		return p, errors.New("missing parameter parity")
	}
	if dt := q.Get("dataType"); dt != "" {
		p.DataType = strings.ToLower(dt)
	}
	return p, nil
}

// Validate checks the serial framing and register settings.
func (p Params) Validate() error {
	switch p.Parity {
	case "N", "E", "O":
	default:
		return errors.Errorf("parity must be N, E or O, not %q", p.Parity)
	}
	if p.BaudRate <= 0 {
		return errors.Errorf("invalid baud rate %d", p.BaudRate)
	}
	if p.StopBits != 1 && p.StopBits != 2 {
		return errors.Errorf("stopbits must be 1 or 2, not %d", p.StopBits)
	}
	if p.ByteSize != 7 && p.ByteSize != 8 {
		return errors.Errorf("bytesize must be 7 or 8, not %d", p.ByteSize)
	}
	if p.CountMode != 1 && p.CountMode != 2 {
		return errors.Errorf("countMode must be 1 or 2, not %d", p.CountMode)
	}
	switch p.DataType {
	case "float", "long", "uint":
	default:
		return errors.Errorf("dataType must be float, long or uint, not %q", p.DataType)
	}
	if p.SlaveID < 1 || p.SlaveID > 247 {
		return errors.Errorf("slaveId %d out of range 1-247", p.SlaveID)
	}
	if p.RegisterAddress < 0 || p.RegisterAddress+p.CountMode > 0x10000 {
		return errors.Errorf("registerAddress %d out of range", p.RegisterAddress)
	}
	if p.Timeout <= 0 {
		return errors.Errorf("invalid timeout %d", p.Timeout)
	}
	return nil
}
