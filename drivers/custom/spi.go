// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package custom

import (
	"encoding/json"
	"fmt"

	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const spiBitsPerWord = 8

type spiConfig struct {
	Bus        int `json:"bus"`
	Device     int `json:"device"`
	Mode       int `json:"mode"`
	MaxSpeedHz int `json:"max_speed_hz"`
}

func (c spiConfig) portName() string {
	return fmt.Sprintf("/dev/spidev%d.%d", c.Bus, c.Device)
}

func (c spiConfig) validate() error {
	if c.Mode < 0 || c.Mode > 3 {
		return errors.New("Mode must be 0, 1, 2, or 3")
	}
	if c.MaxSpeedHz <= 0 {
		return errors.Errorf("invalid max_speed_hz %d", c.MaxSpeedHz)
	}
	return nil
}

type spiSession struct {
	cfg  spiConfig
	port spi.PortCloser
	conn spi.Conn
}

func spiProtocol() protocol {
	return protocol{
		name: common.ProtocolSPI,
		ops:  []string{"transfer", "write", "read", "set_mode", "set_speed", "get_config"},
		open: func(body []byte) (string, func() (interface{}, error), error) {
			cfg := spiConfig{MaxSpeedHz: 500000}
			if err := json.Unmarshal(body, &cfg); err != nil {
				return "", nil, err
			}
			// mode and speed are only initial settings. set_mode and
			// set_speed change them on the open session.
			return cfg.portName(), func() (interface{}, error) {
				if err := cfg.validate(); err != nil {
					return nil, err
				}
				s := &spiSession{cfg: cfg}
				if err := s.connect(); err != nil {
					return nil, err
				}
				return s, nil
			}, nil
		},
	}
}

// connect (re)opens the port. A periph SPI port can be connected only
// once, so every mode or speed change goes through a fresh port.
func (s *spiSession) connect() error {
	if s.port != nil {
		s.port.Close()
		s.port, s.conn = nil, nil
	}
	port, err := hal.OpenSPI(s.cfg.portName())
	if err != nil {
		return err
	}
	c, err := port.Connect(physic.Frequency(s.cfg.MaxSpeedHz)*physic.Hertz, spi.Mode(s.cfg.Mode), spiBitsPerWord)
	if err != nil {
		port.Close()
		return errors.Wrap(err, "SPI connect failed")
	}
	s.port, s.conn = port, c
	return nil
}

func (s *spiSession) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port, s.conn = nil, nil
	return err
}

type spiArgs struct {
	Data    []int `json:"data"`
	Length  int   `json:"length"`
	Mode    *int  `json:"mode"`
	SpeedHz int   `json:"speed_hz"`
}

func (s *spiSession) do(op string, body []byte) Result {
	var args spiArgs
	if err := decodeArgs(body, &args); err != nil {
		return fail(err)
	}
	if s.conn == nil && op != "get_config" {
		if err := s.connect(); err != nil {
			return fail(err)
		}
	}

	switch op {
	case "transfer":
		w, err := toBytes(args.Data)
		if err != nil {
			return fail(err)
		}
		r := make([]byte, len(w))
		if err := s.conn.Tx(w, r); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Transferred: %s, Received: %s", hexList(w), hexList(r))).
			with("sent", hexStrings(w)).
			with("received", hexStrings(r))
	case "write":
		w, err := toBytes(args.Data)
		if err != nil {
			return fail(err)
		}
		if err := s.conn.Tx(w, nil); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Written: %s", hexList(w)))
	case "read":
		if args.Length <= 0 {
			return fail(errors.Errorf("invalid length %d", args.Length))
		}
		r := make([]byte, args.Length)
		if err := s.conn.Tx(make([]byte, args.Length), r); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Read %d bytes: %s", args.Length, hexList(r))).with("data", hexStrings(r))
	case "set_mode":
		if args.Mode == nil || *args.Mode < 0 || *args.Mode > 3 {
			return Result{"success": false, "message": "Mode must be 0, 1, 2, or 3"}
		}
		s.cfg.Mode = *args.Mode
		if err := s.connect(); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("SPI mode changed to: %d", s.cfg.Mode))
	case "set_speed":
		if args.SpeedHz <= 0 {
			return fail(errors.Errorf("invalid speed_hz %d", args.SpeedHz))
		}
		s.cfg.MaxSpeedHz = args.SpeedHz
		if err := s.connect(); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("SPI speed changed to: %dHz", s.cfg.MaxSpeedHz))
	case "get_config":
		return Result{
			"success":       true,
			"message":       fmt.Sprintf("SPI %s mode %d at %dHz", s.cfg.portName(), s.cfg.Mode, s.cfg.MaxSpeedHz),
			"bus":           s.cfg.Bus,
			"device":        s.cfg.Device,
			"mode":          s.cfg.Mode,
			"max_speed_hz":  s.cfg.MaxSpeedHz,
			"bits_per_word": spiBitsPerWord,
		}
	}
	return fail(ErrUnknownOperation)
}
