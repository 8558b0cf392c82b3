// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package i2cdev

import (
	"context"

	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
)

const (
	SSD1306Address = 0x3c

	ssd1306Width = 128
	ssd1306Pages = 8

	ssd1306Command = 0x00
	ssd1306Data    = 0x40
)

var ssd1306Init = []byte{
	0xae,       // display off
	0xd5, 0x80, // clock divide
	0xa8, 0x3f, // multiplex 64
	0xd3, 0x00, // display offset
	0x40,       // start line 0
	0x8d, 0x14, // charge pump on
	0x20, 0x00, // horizontal addressing
	0xa1,       // segment remap
	0xc8,       // COM scan descending
	0xda, 0x12, // COM pins
	0x81, 0xcf, // contrast
	0xd9, 0xf1, // precharge
	0xdb, 0x40, // VCOM detect
	0xa4,       // resume to RAM
	0xa6,       // normal display
	0xaf,       // display on
}

// SSD1306 is the 128x64 I2C OLED display.
type SSD1306 struct {
	busHolder
	Addr uint16
}

func NewSSD1306(bus string) *SSD1306 {
	return &SSD1306{busHolder: busHolder{name: bus}, Addr: SSD1306Address}
}

// TestPattern returns one frame of checkerboard in SSD1306 page layout.
func TestPattern(width, pages int) []byte {
	frame := make([]byte, width*pages)
	for i := range frame {
		if (i/8)%2 == 0 {
			frame[i] = 0xaa
		} else {
			frame[i] = 0x55
		}
	}
	return frame
}

// WritePattern initializes the display and draws the test pattern.
func (d *SSD1306) WritePattern() error {
	bus, err := d.get()
	if err != nil {
		return err
	}
	dev := &i2c.Dev{Bus: bus, Addr: d.Addr}
	for _, c := range ssd1306Init {
		if err := dev.Tx([]byte{ssd1306Command, c}, nil); err != nil {
			return errors.Wrap(err, "OLED initialization failed")
		}
	}
	window := []byte{ssd1306Command, 0x21, 0, ssd1306Width - 1, 0x22, 0, ssd1306Pages - 1}
	if err := dev.Tx(window, nil); err != nil {
		return errors.Wrap(err, "OLED addressing failed")
	}
	frame := TestPattern(ssd1306Width, ssd1306Pages)
	// 16 data bytes per transfer keeps every message under the SMBus block limit.
	for off := 0; off < len(frame); off += 16 {
		chunk := append([]byte{ssd1306Data}, frame[off:off+16]...)
		if err := dev.Tx(chunk, nil); err != nil {
			return errors.Wrap(err, "OLED frame write failed")
		}
	}
	return nil
}

func (d *SSD1306) RunCycle(ctx context.Context, emit models.Emitter) error {
	if err := d.WritePattern(); err != nil {
		return err
	}
	emit("OLED display test pattern written")
	return nil
}
