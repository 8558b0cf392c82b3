// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package uartdev reads the SDS011 particulate matter sensor.
package uartdev

import (
	"context"
	"fmt"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const (
	frameLen    = 10
	frameHead   = 0xaa
	frameCmd    = 0xc0
	frameTail   = 0xab
	readTimeout = 100 * time.Millisecond
)

// ErrNoFrame is returned when no valid frame arrived before the deadline.
var ErrNoFrame = errors.New("no SDS011 frame received")

// Reading is one PM measurement in µg/m³.
type Reading struct {
	PM25 float64
	PM10 float64
}

// DecodeFrame validates a 10 byte SDS011 data frame and decodes it.
func DecodeFrame(f []byte) (Reading, error) {
	if len(f) != frameLen {
		return Reading{}, errors.Errorf("SDS011 frame has %d bytes, want %d", len(f), frameLen)
	}
	if f[0] != frameHead || f[1] != frameCmd || f[9] != frameTail {
		return Reading{}, errors.Errorf("malformed SDS011 frame % x", f)
	}
	var sum byte
	for _, b := range f[2:8] {
		sum += b
	}
	if sum != f[8] {
		return Reading{}, errors.Errorf("SDS011 checksum mismatch: got 0x%02x, want 0x%02x", f[8], sum)
	}
	return Reading{
		PM25: float64(uint16(f[3])<<8|uint16(f[2])) / 10,
		PM10: float64(uint16(f[5])<<8|uint16(f[4])) / 10,
	}, nil
}

// SDS011 reads frames from the sensor's UART. The sensor reports once per
// second on its own, so a cycle only listens.
type SDS011 struct {
	PortName string
	BaudRate int
	// Wait bounds how long a cycle listens for a frame.
	Wait time.Duration
}

func NewSDS011(port string, baud int) *SDS011 {
	return &SDS011{PortName: port, BaudRate: baud, Wait: 2 * time.Second}
}

// Read opens the port, waits for one valid frame and closes the port.
func (s *SDS011) Read(ctx context.Context) (Reading, error) {
	mode := &serial.Mode{BaudRate: s.BaudRate, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := hal.OpenSerial(s.PortName, mode)
	if err != nil {
		return Reading{}, err
	}
	defer port.Close()
	if err := port.SetReadTimeout(readTimeout); err != nil {
		return Reading{}, errors.Wrap(err, "could not set UART read timeout")
	}

	deadline := time.Now().Add(s.Wait)
	var buf []byte
	chunk := make([]byte, 32)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return Reading{}, err
		}
		n, err := port.Read(chunk)
		if err != nil {
			return Reading{}, errors.Wrap(err, "UART read failed")
		}
		if n == 0 {
			if err := hal.Sleep(ctx, readTimeout); err != nil {
				return Reading{}, err
			}
			continue
		}
		buf = append(buf, chunk[:n]...)
		for len(buf) >= frameLen {
			if buf[0] != frameHead || buf[1] != frameCmd {
				buf = buf[1:]
				continue
			}
			r, err := DecodeFrame(buf[:frameLen])
			if err == nil {
				return r, nil
			}
			buf = buf[1:]
		}
	}
	return Reading{}, ErrNoFrame
}

func (s *SDS011) RunCycle(ctx context.Context, emit models.Emitter) error {
	r, err := s.Read(ctx)
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("PM2.5: %.1f µg/m³<br>PM10: %.1f µg/m³", r.PM25, r.PM10))
	return nil
}
