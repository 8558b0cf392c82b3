// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package haltest provides in-memory fakes for the hal openers.
package haltest

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Port is an in-memory serial.Port. Reads drain RX, writes append to TX.
// A read on an empty RX returns 0 bytes, as a real port does on timeout.
type Port struct {
	mu        sync.Mutex
	RX        bytes.Buffer
	TX        bytes.Buffer
	Mode      serial.Mode
	DTR       bool
	RTS       bool
	Status    serial.ModemStatusBits
	Timeout   time.Duration
	Breaks    []time.Duration
	Closed    bool
	Drained   bool
	ReadError error
}

func (p *Port) SetMode(mode *serial.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Mode = *mode
	return nil
}

func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Closed {
		return 0, errors.New("port closed")
	}
	if p.ReadError != nil {
		return 0, p.ReadError
	}
	if p.RX.Len() == 0 {
		return 0, nil
	}
	return p.RX.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Closed {
		return 0, errors.New("port closed")
	}
	return p.TX.Write(b)
}

func (p *Port) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Drained = true
	return nil
}

func (p *Port) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RX.Reset()
	return nil
}

func (p *Port) ResetOutputBuffer() error {
	return nil
}

func (p *Port) SetDTR(dtr bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DTR = dtr
	return nil
}

func (p *Port) SetRTS(rts bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RTS = rts
	return nil
}

func (p *Port) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.Status
	return &s, nil
}

func (p *Port) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Timeout = t
	return nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

func (p *Port) Break(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Breaks = append(p.Breaks, d)
	return nil
}

// Feed queues bytes to be returned by Read.
func (p *Port) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RX.Write(b)
}

// Written returns a copy of everything written so far.
func (p *Port) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.TX.Bytes()...)
}

// Opener returns an OpenSerial replacement that hands out p and records
// the requested mode.
func (p *Port) Opener() func(name string, mode *serial.Mode) (serial.Port, error) {
	return func(name string, mode *serial.Mode) (serial.Port, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Mode = *mode
		p.Closed = false
		return p, nil
	}
}
