// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package gpiodev

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
)

// readMilli reads a sysfs attribute holding an integer in thousandths.
func readMilli(path string) (float64, error) {
	b, err := hal.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected contents in %s", path)
	}
	return float64(v) / 1000, nil
}

// DHT11 reads the sensor through the kernel dht11 IIO driver, which is
// loaded by the dht11 device tree overlay.
type DHT11 struct {
	Device       string
	Attempts     int
	AttemptDelay time.Duration
}

func NewDHT11(device string) *DHT11 {
	return &DHT11{Device: device, Attempts: 5, AttemptDelay: time.Second}
}

// Read returns temperature in °C and relative humidity in %. The sensor
// fails often, so every attempt is preceded by a pause.
func (s *DHT11) Read(ctx context.Context) (temp, hum float64, err error) {
	for i := 0; i < s.Attempts; i++ {
		if err = hal.Sleep(ctx, s.AttemptDelay); err != nil {
			return 0, 0, err
		}
		temp, err = readMilli(filepath.Join(s.Device, "in_temp_input"))
		if err != nil {
			continue
		}
		hum, err = readMilli(filepath.Join(s.Device, "in_humidityrelative_input"))
		if err == nil {
			return temp, hum, nil
		}
	}
	return 0, 0, err
}

func (s *DHT11) RunCycle(ctx context.Context, emit models.Emitter) error {
	temp, hum, err := s.Read(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		emit("Failed to get reading. Try again!")
		return nil
	}
	emit(fmt.Sprintf("Temperature: %.1f°C<br>Humidity: %.1f%%", temp, hum))
	return nil
}

// DS18B20 reads the first 1-Wire thermometer found under the w1 bus.
type DS18B20 struct {
	Devices string
}

var errNoThermometer = errors.New("no DS18B20 found on the 1-Wire bus")

// parseW1Slave parses the two line w1_slave report of the w1_therm driver.
func parseW1Slave(contents string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(contents), "\n")
	if len(lines) < 2 {
		return 0, errors.New("truncated w1_slave report")
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, errors.New("DS18B20 CRC check failed")
	}
	i := strings.Index(lines[1], "t=")
	if i < 0 {
		return 0, errors.New("no temperature in w1_slave report")
	}
	v, err := strconv.Atoi(strings.TrimSpace(lines[1][i+2:]))
	if err != nil {
		return 0, errors.Wrap(err, "invalid DS18B20 temperature")
	}
	return float64(v) / 1000, nil
}

func (s *DS18B20) Temperature() (float64, error) {
	matches, err := hal.Glob(filepath.Join(s.Devices, "28-*", "w1_slave"))
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, errNoThermometer
	}
	b, err := hal.ReadFile(matches[0])
	if err != nil {
		return 0, err
	}
	return parseW1Slave(string(b))
}

func (s *DS18B20) RunCycle(ctx context.Context, emit models.Emitter) error {
	t, err := s.Temperature()
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("Temperature: %.3f°C", t))
	return nil
}
