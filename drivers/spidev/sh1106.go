// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package spidev holds the SPI device tests: the SH1106 OLED, which stays
// lit between runs, and the SD card socket.
package spidev

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	sh1106Width    = 128
	sh1106Pages    = 8
	sh1106ColShift = 2
	sh1106Speed    = 8 * physic.MegaHertz
)

var sh1106Init = []byte{
	0xae,       // display off
	0xd5, 0x80, // clock divide
	0xa8, 0x3f, // multiplex 64
	0xd3, 0x00, // display offset
	0x40,       // start line 0
	0xad, 0x8b, // DC-DC on
	0xa1,       // segment remap
	0xc8,       // COM scan descending
	0xda, 0x12, // COM pins
	0x81, 0x80, // contrast
	0xd9, 0x22, // precharge
	0xdb, 0x35, // VCOM deselect
	0xa4,       // resume to RAM
	0xa6,       // normal display
	0xaf,       // display on
}

// SH1106 drives the 128x64 SPI OLED through a data/command pin and a
// reset pin. Once initialized it keeps showing the test pattern until it
// is closed.
type SH1106 struct {
	lc        logger.LoggingClient
	portName  string
	dcName    string
	resetName string

	mutex sync.Mutex
	port  spi.PortCloser
	conn  spi.Conn
	dc    gpio.PinIO
	reset gpio.PinIO
}

func NewSH1106(lc logger.LoggingClient, port, dcPin, resetPin string) *SH1106 {
	return &SH1106{lc: lc, portName: port, dcName: dcPin, resetName: resetPin}
}

// Persistent keeps the display in the instance registry across runs.
func (d *SH1106) Persistent() bool { return true }

// Fingerprint identifies the wiring the display was opened with.
func (d *SH1106) Fingerprint() string {
	return fmt.Sprintf("sh1106|%s|%s|%s", d.portName, d.dcName, d.resetName)
}

// Initialize resets the controller and draws the test pattern.
func (d *SH1106) Initialize(ctx context.Context, emit models.Emitter) error {
	emit("SPI OLED is displaying image...")
	if err := d.open(ctx); err != nil {
		return err
	}
	if err := d.draw(ctx, testPattern()); err != nil {
		return err
	}
	emit("Image displayed on SPI OLED.")
	return nil
}

func (d *SH1106) RunCycle(ctx context.Context, emit models.Emitter) error {
	d.mutex.Lock()
	ready := d.conn != nil
	d.mutex.Unlock()
	if !ready {
		return errors.New("SPI OLED is not initialized")
	}
	emit("SPI OLED is already initialized and displaying image.")
	return nil
}

// Close blanks the display and releases the port.
func (d *SH1106) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.conn == nil {
		return nil
	}
	var err error
	if err = d.writeFrame(make([]byte, sh1106Width*sh1106Pages)); err == nil {
		err = d.command(0xae)
	}
	if cerr := d.port.Close(); err == nil {
		err = cerr
	}
	d.port, d.conn = nil, nil
	d.lc.Debug("SPI OLED display cleared and port closed")
	return err
}

func (d *SH1106) open(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.conn != nil {
		return nil
	}
	dc, err := hal.PinByName(d.dcName)
	if err != nil {
		return err
	}
	reset, err := hal.PinByName(d.resetName)
	if err != nil {
		return err
	}
	port, err := hal.OpenSPI(d.portName)
	if err != nil {
		return err
	}
	c, err := port.Connect(sh1106Speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return errors.Wrap(err, "SPI OLED connect failed")
	}
	d.port, d.conn, d.dc, d.reset = port, c, dc, reset

	if err := d.pulseReset(ctx); err != nil {
		d.port.Close()
		d.port, d.conn = nil, nil
		return err
	}
	if err := d.command(sh1106Init...); err != nil {
		d.port.Close()
		d.port, d.conn = nil, nil
		return err
	}
	d.lc.Info(fmt.Sprintf("SPI OLED initialized on %s", d.portName))
	return nil
}

func (d *SH1106) pulseReset(ctx context.Context) error {
	if err := d.reset.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "SPI OLED reset failed")
	}
	if err := hal.Sleep(ctx, time.Millisecond); err != nil {
		return err
	}
	if err := d.reset.Out(gpio.High); err != nil {
		return errors.Wrap(err, "SPI OLED reset failed")
	}
	return hal.Sleep(ctx, time.Millisecond)
}

func (d *SH1106) draw(ctx context.Context, frame []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.conn == nil {
		return errors.New("SPI OLED is not initialized")
	}
	return d.writeFrame(frame)
}

// writeFrame expects the mutex to be held.
func (d *SH1106) writeFrame(frame []byte) error {
	for page := 0; page < sh1106Pages; page++ {
		if err := d.command(0xb0|byte(page), sh1106ColShift&0x0f, 0x10|sh1106ColShift>>4); err != nil {
			return err
		}
		if err := d.data(frame[page*sh1106Width : (page+1)*sh1106Width]); err != nil {
			return err
		}
	}
	return nil
}

func (d *SH1106) command(cmds ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "SPI OLED DC pin failed")
	}
	if err := d.conn.Tx(cmds, nil); err != nil {
		return errors.Wrap(err, "SPI OLED command write failed")
	}
	return nil
}

func (d *SH1106) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return errors.Wrap(err, "SPI OLED DC pin failed")
	}
	if err := d.conn.Tx(b, nil); err != nil {
		return errors.Wrap(err, "SPI OLED data write failed")
	}
	return nil
}

// testPattern is a frame with a border and a diagonal cross.
func testPattern() []byte {
	frame := make([]byte, sh1106Width*sh1106Pages)
	set := func(x, y int) {
		frame[(y/8)*sh1106Width+x] |= 1 << uint(y%8)
	}
	for x := 0; x < sh1106Width; x++ {
		set(x, 0)
		set(x, sh1106Pages*8-1)
		set(x, x/2)
		set(x, sh1106Pages*8-1-x/2)
	}
	for y := 0; y < sh1106Pages*8; y++ {
		set(0, y)
		set(sh1106Width-1, y)
	}
	return frame
}
