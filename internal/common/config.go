// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"fmt"
	"time"
)

// Config is the top level structure of configuration.toml.
type Config struct {
	Service   ServiceInfo
	Registry  RegistryService
	Logging   LoggingInfo
	Writable  WritableInfo
	Clients   map[string]ClientInfo
	Hardware  HardwareInfo
	Tests     TestsInfo
	RS485     RS485Info
	Schedules []ScheduleInfo
}

// ServiceInfo holds the settings of the jig HTTP service itself.
type ServiceInfo struct {
	Host string
	Port int
	// ReadTimeout applies to non-streaming requests only, in milliseconds.
	ReadTimeout int
	// WebRoot is the directory the static pages are served from.
	WebRoot string
	// ConnectRetries is the number of times to check the registry before giving up.
	ConnectRetries int
	// Timeout between registry checks, in milliseconds.
	Timeout       int
	CheckInterval string
	Labels        []string
}

// RegistryService describes the Consul agent used when --registry is given.
type RegistryService struct {
	Host string
	Port int
	Type string
}

type LoggingInfo struct {
	EnableRemote bool
	File         string
}

type WritableInfo struct {
	LogLevel string
}

// ClientInfo provides the host and port of another service.
type ClientInfo struct {
	Name     string
	Host     string
	Port     int
	Protocol string
	Timeout  int
}

// Url returns the base URL of the client.
func (c ClientInfo) Url() string {
	protocol := c.Protocol
	if protocol == "" {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s:%d", protocol, c.Host, c.Port)
}

// HardwareInfo maps the jig's sockets onto host buses and pins.
type HardwareInfo struct {
	I2CBus       string
	SPIPort      string
	SPIOLEDPort  string
	ADCPort      string
	UARTPort     string
	UARTBaudRate int
	LEDPin       string
	ButtonPin    string
	FadePin      string
	ServoPin     string
	RGBPins      []string
	TriggerPin   string
	EchoPin      string
	OLEDDCPin    string
	OLEDResetPin string
	DHT11Path    string
	OneWirePath  string
	ADCChannels  map[string]int
}

// TestsInfo tunes the streaming test loop. Durations are in milliseconds.
type TestsInfo struct {
	Interval   int
	RGBTimeout int
}

func (t TestsInfo) IntervalDuration() time.Duration {
	if t.Interval <= 0 {
		return time.Second
	}
	return time.Duration(t.Interval) * time.Millisecond
}

func (t TestsInfo) RGBTimeoutDuration() time.Duration {
	if t.RGBTimeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(t.RGBTimeout) * time.Millisecond
}

// RS485Info holds the Modbus RTU adapter settings.
type RS485Info struct {
	Port         string
	PollInterval int
	Timeout      int
}

func (r RS485Info) PollDuration() time.Duration {
	if r.PollInterval <= 0 {
		return time.Second
	}
	return time.Duration(r.PollInterval) * time.Millisecond
}

func (r RS485Info) TimeoutDuration() time.Duration {
	if r.Timeout <= 0 {
		return time.Second
	}
	return time.Duration(r.Timeout) * time.Millisecond
}

// ScheduleInfo describes a soak test run periodically by the scheduler.
type ScheduleInfo struct {
	Name     string
	Protocol string
	Device   string
	Cron     string
}
