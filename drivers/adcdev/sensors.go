// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package adcdev

import (
	"context"
	"fmt"

	"github.com/jigworks/device-testjig-go/pkg/models"
)

// Pot reads a potentiometer wiper.
type Pot struct {
	ADC     MCP3008
	Channel int
}

func (p *Pot) RunCycle(ctx context.Context, emit models.Emitter) error {
	raw, err := p.ADC.Read(p.Channel)
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("Potentiometer: raw %d (%.2f V)", raw, Volts(raw)))
	return nil
}

// TDS reads a total dissolved solids probe.
type TDS struct {
	ADC     MCP3008
	Channel int
}

// PPM converts the probe voltage with the usual cubic fit of the
// Gravity TDS board, halved for the 0.5 calibration factor.
func PPM(v float64) float64 {
	return (133.42*v*v*v - 255.86*v*v + 857.39*v) * 0.5
}

func (s *TDS) RunCycle(ctx context.Context, emit models.Emitter) error {
	raw, err := s.ADC.Read(s.Channel)
	if err != nil {
		return err
	}
	v := Volts(raw)
	emit(fmt.Sprintf("TDS: %.2f ppm (%.2f V)", PPM(v), v))
	return nil
}

// LDR reads a light dependent resistor divider.
type LDR struct {
	ADC     MCP3008
	Channel int
}

func (l *LDR) RunCycle(ctx context.Context, emit models.Emitter) error {
	raw, err := l.ADC.Read(l.Channel)
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("LDR: raw %d (%.1f%% light)", raw, float64(raw)*100/MaxValue))
	return nil
}
