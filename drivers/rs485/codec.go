// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package rs485

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupportedCombination is returned by EncodeRegisters for a count
// mode and data type pair it cannot encode.
var ErrUnsupportedCombination = errors.New("Unsupported combination of count mode and data type.")

// EncodeRegisters lays value out in holding registers. Bytes within a
// register are big-endian and 32-bit values put the low word first.
func EncodeRegisters(countMode int, dataType string, value float64) ([]uint16, error) {
	switch {
	case countMode == 1 && dataType == "uint":
		v := int64(value)
		if v < 0 || v > math.MaxUint16 {
			return nil, errors.Errorf("value %v does not fit a 16-bit register", value)
		}
		return []uint16{uint16(v)}, nil
	case countMode == 2 && dataType == "float":
		return splitWords(math.Float32bits(float32(value))), nil
	case countMode == 2 && dataType == "long":
		v := int64(value)
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, errors.Errorf("value %v does not fit a 32-bit integer", value)
		}
		return splitWords(uint32(int32(v))), nil
	}
	return nil, ErrUnsupportedCombination
}

func splitWords(bits uint32) []uint16 {
	return []uint16{uint16(bits), uint16(bits >> 16)}
}

// DecodeFloat32 decodes the 4 byte payload of a two register read laid
// out as EncodeRegisters does.
func DecodeFloat32(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, errors.Errorf("expected 4 bytes, got %d", len(b))
	}
	lo := uint32(b[0])<<8 | uint32(b[1])
	hi := uint32(b[2])<<8 | uint32(b[3])
	return math.Float32frombits(hi<<16 | lo), nil
}

// Round3 rounds to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// FormatValue prints v the way the jig pages expect: shortest form, but
// always with a decimal part.
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
