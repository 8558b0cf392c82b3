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
	"strings"

	"github.com/jigworks/device-testjig-go/drivers/pwmdev"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// PWMPins are the BCM pin numbers wired to the PWM header of the jig.
var PWMPins = []int{18, 23, 24, 25}

type pwmConfig struct {
	Pin       int     `json:"pin"`
	Frequency float64 `json:"frequency"`
}

type pwmSession struct {
	pin       gpio.PinIO
	number    int
	frequency float64
	duty      float64
	running   bool
}

func pwmProtocol() protocol {
	return protocol{
		name: common.ProtocolPWM,
		ops: []string{"start", "stop", "change_duty_cycle", "change_frequency", "set_pulse_width",
			"get_status"},
		open: func(body []byte) (string, func() (interface{}, error), error) {
			cfg := pwmConfig{Pin: PWMPins[0], Frequency: 1000}
			if err := json.Unmarshal(body, &cfg); err != nil {
				return "", nil, err
			}
			return fmt.Sprintf("pin=%d", cfg.Pin), func() (interface{}, error) { return openPWM(cfg) }, nil
		},
	}
}

func openPWM(cfg pwmConfig) (*pwmSession, error) {
	available := false
	for _, p := range PWMPins {
		if p == cfg.Pin {
			available = true
		}
	}
	if !available {
		names := make([]string, len(PWMPins))
		for i, p := range PWMPins {
			names[i] = strconv.Itoa(p)
		}
		return nil, errors.Errorf("Pin %d not available. Use: [%s]", cfg.Pin, strings.Join(names, ", "))
	}
	if cfg.Frequency <= 0 {
		return nil, errors.New("Frequency must be positive")
	}
	pin, err := hal.PinByName(fmt.Sprintf("GPIO%d", cfg.Pin))
	if err != nil {
		return nil, err
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "could not drive GPIO %d low", cfg.Pin)
	}
	return &pwmSession{pin: pin, number: cfg.Pin, frequency: cfg.Frequency}, nil
}

// apply drives the pin with the current duty cycle and frequency.
func (s *pwmSession) apply() error {
	if s.duty <= 0 {
		return s.pin.Out(gpio.Low)
	}
	return s.pin.PWM(pwmdev.Duty(s.duty), physic.Frequency(s.frequency*float64(physic.Hertz)))
}

func (s *pwmSession) periodMS() float64 {
	return 1000.0 / s.frequency
}

// Close stops the output and leaves the pin low.
func (s *pwmSession) Close() error {
	s.running = false
	return s.pin.Out(gpio.Low)
}

type pwmArgs struct {
	DutyCycle    float64 `json:"duty_cycle"`
	Frequency    float64 `json:"frequency"`
	PulseWidthMS float64 `json:"pulse_width_ms"`
}

func (s *pwmSession) do(op string, body []byte) Result {
	var args pwmArgs
	if err := decodeArgs(body, &args); err != nil {
		return fail(err)
	}

	switch op {
	case "start":
		if args.DutyCycle < 0 || args.DutyCycle > 100 {
			return Result{"success": false, "message": "Duty cycle must be between 0 and 100"}
		}
		s.duty = args.DutyCycle
		if err := s.apply(); err != nil {
			return fail(err)
		}
		s.running = true
		return ok(fmt.Sprintf("PWM started on GPIO %d with duty cycle: %s%%", s.number, number(s.duty)))
	case "stop":
		if err := s.pin.Out(gpio.Low); err != nil {
			return fail(err)
		}
		s.running = false
		return ok(fmt.Sprintf("PWM stopped on GPIO %d", s.number))
	case "change_duty_cycle":
		if args.DutyCycle < 0 || args.DutyCycle > 100 {
			return Result{"success": false, "message": "Duty cycle must be between 0 and 100"}
		}
		s.duty = args.DutyCycle
		if s.running {
			if err := s.apply(); err != nil {
				return fail(err)
			}
		}
		return ok(fmt.Sprintf("Duty cycle changed to: %s%%", number(s.duty)))
	case "change_frequency":
		if args.Frequency <= 0 {
			return Result{"success": false, "message": "Frequency must be positive"}
		}
		s.frequency = args.Frequency
		if s.running {
			if err := s.apply(); err != nil {
				return fail(err)
			}
		}
		return ok(fmt.Sprintf("Frequency changed to: %sHz", number(s.frequency)))
	case "set_pulse_width":
		duty := args.PulseWidthMS / s.periodMS() * 100
		if duty < 0 || duty > 100 {
			return Result{"success": false, "message": "Pulse width results in invalid duty cycle"}
		}
		s.duty = duty
		if s.running {
			if err := s.apply(); err != nil {
				return fail(err)
			}
		}
		return ok(fmt.Sprintf("Pulse width set to %sms (duty cycle: %.2f%%)", number(args.PulseWidthMS), duty))
	case "get_status":
		return Result{
			"success":    true,
			"message":    fmt.Sprintf("GPIO %d at %sHz, duty cycle %s%%", s.number, number(s.frequency), number(s.duty)),
			"pin":        s.number,
			"frequency":  s.frequency,
			"duty_cycle": s.duty,
			"is_running": s.running,
			"period_ms":  s.periodMS(),
			"on_time_ms": s.duty / 100 * s.periodMS(),
		}
	}
	return fail(ErrUnknownOperation)
}
