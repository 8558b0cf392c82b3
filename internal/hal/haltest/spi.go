// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package haltest

import (
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// SPIPort is an spi.PortCloser that records every transfer. Reply, when
// set, fills the read buffer of each transfer.
type SPIPort struct {
	mu        sync.Mutex
	Name      string
	Writes    [][]byte
	Freq      physic.Frequency
	Mode      spi.Mode
	Bits      int
	Connects  int
	Closed    bool
	Reply     func(w, r []byte)
	OnWrite   func(w []byte)
	TxError   error
	Connected bool
}

func (p *SPIPort) String() string { return p.Name }

func (p *SPIPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

func (p *SPIPort) LimitSpeed(f physic.Frequency) error { return nil }

func (p *SPIPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Freq, p.Mode, p.Bits = f, mode, bits
	p.Connects++
	p.Connected = true
	return &spiConn{p: p}, nil
}

// Data returns every byte written, in order.
func (p *SPIPort) Data() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	var all []byte
	for _, w := range p.Writes {
		all = append(all, w...)
	}
	return all
}

type spiConn struct {
	p *SPIPort
}

func (c *spiConn) String() string      { return c.p.Name }
func (c *spiConn) Duplex() conn.Duplex { return conn.Full }

func (c *spiConn) Tx(w, r []byte) error {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if c.p.TxError != nil {
		return c.p.TxError
	}
	c.p.Writes = append(c.p.Writes, append([]byte(nil), w...))
	if c.p.OnWrite != nil {
		c.p.OnWrite(w)
	}
	if c.p.Reply != nil && len(r) != 0 {
		c.p.Reply(w, r)
	}
	return nil
}

func (c *spiConn) TxPackets(p []spi.Packet) error {
	for _, pkt := range p {
		if err := c.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// SPIOpener returns an OpenSPI replacement that hands out p.
func (p *SPIPort) SPIOpener() func(name string) (spi.PortCloser, error) {
	return func(name string) (spi.PortCloser, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Closed = false
		return p, nil
	}
}
