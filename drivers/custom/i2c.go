// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package custom

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jigworks/device-testjig-go/drivers/i2cdev"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
)

type i2cConfig struct {
	Bus     int `json:"bus"`
	Address int `json:"address"`
}

type i2cSession struct {
	cfg i2cConfig
	bus i2c.BusCloser
	dev *i2c.Dev
}

func i2cProtocol(hw common.HardwareInfo) protocol {
	defaultBus, err := strconv.Atoi(hw.I2CBus)
	if err != nil {
		defaultBus = 1
	}
	return protocol{
		name: common.ProtocolI2C,
		ops: []string{"write_byte", "read_byte", "write_byte_data", "read_byte_data",
			"write_block_data", "read_block_data", "scan"},
		open: func(body []byte) (string, func() (interface{}, error), error) {
			cfg := i2cConfig{Bus: defaultBus}
			if err := json.Unmarshal(body, &cfg); err != nil {
				return "", nil, err
			}
			if cfg.Address < 0 || cfg.Address > 0x7f {
				return "", nil, errors.Errorf("address 0x%x is not a 7-bit address", cfg.Address)
			}
			fp := fmt.Sprintf("bus=%d addr=0x%02x", cfg.Bus, cfg.Address)
			return fp, func() (interface{}, error) { return openI2C(cfg) }, nil
		},
	}
}

func openI2C(cfg i2cConfig) (*i2cSession, error) {
	bus, err := hal.OpenI2C(strconv.Itoa(cfg.Bus))
	if err != nil {
		return nil, err
	}
	return &i2cSession{cfg: cfg, bus: bus, dev: &i2c.Dev{Bus: bus, Addr: uint16(cfg.Address)}}, nil
}

func (s *i2cSession) Close() error {
	return s.bus.Close()
}

type i2cArgs struct {
	Data     json.RawMessage `json:"data"`
	Register int             `json:"register"`
	Length   int             `json:"length"`
}

func (s *i2cSession) do(op string, body []byte) Result {
	var args i2cArgs
	if err := decodeArgs(body, &args); err != nil {
		return fail(err)
	}
	if args.Register < 0 || args.Register > 0xff {
		return fail(errors.Errorf("register 0x%x out of range", args.Register))
	}
	reg := byte(args.Register)

	switch op {
	case "write_byte":
		b, err := byteArg(args.Data)
		if err != nil {
			return fail(err)
		}
		if err := s.dev.Tx([]byte{b}, nil); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Written byte: 0x%02X", b))
	case "read_byte":
		r := make([]byte, 1)
		if err := s.dev.Tx(nil, r); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Read byte: 0x%02X", r[0])).with("data", int(r[0]))
	case "write_byte_data":
		b, err := byteArg(args.Data)
		if err != nil {
			return fail(err)
		}
		if err := s.dev.Tx([]byte{reg, b}, nil); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Written to register 0x%02X: 0x%02X", reg, b))
	case "read_byte_data":
		r := make([]byte, 1)
		if err := s.dev.Tx([]byte{reg}, r); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Read from register 0x%02X: 0x%02X", reg, r[0])).with("data", int(r[0]))
	case "write_block_data":
		data, err := bytesArg(args.Data)
		if err != nil {
			return fail(err)
		}
		if err := s.dev.Tx(append([]byte{reg}, data...), nil); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Written block to register 0x%02X: %s", reg, hexList(data)))
	case "read_block_data":
		if args.Length <= 0 || args.Length > 32 {
			return fail(errors.Errorf("length %d out of range 1-32", args.Length))
		}
		r := make([]byte, args.Length)
		if err := s.dev.Tx([]byte{reg}, r); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Read block from register 0x%02X: %s", reg, hexList(r))).with("data", ints(r))
	case "scan":
		found := i2cdev.Scan(s.bus)
		devices := make([]string, len(found))
		for i, a := range found {
			devices[i] = fmt.Sprintf("0x%02X", a)
		}
		return ok(fmt.Sprintf("Found %d device(s)", len(devices))).with("devices", devices)
	}
	return fail(ErrUnknownOperation)
}

func byteArg(raw json.RawMessage) (byte, error) {
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, errors.New("data must be an integer")
	}
	b, err := toBytes([]int{v})
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func bytesArg(raw json.RawMessage) ([]byte, error) {
	var v []int
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.New("data must be a list of integers")
	}
	return toBytes(v)
}
