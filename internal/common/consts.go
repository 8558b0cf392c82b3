// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"github.com/edgexfoundry/go-mod-core-contracts/clients"
)

const (
	ClientLogging = "Logging"

	APIv1Prefix = "/api/v1"
	Colon       = ":"
	HttpScheme  = "http://"
	HttpProto   = "HTTP"

	ConfigDirectory    = "./res"
	ConfigFileName     = "configuration.toml"
	CatalogFileName    = "devices.yaml"
	ConfigRegistryStem = "edgex/devices/1.0/"

	APICallbackRoute   = APIv1Prefix + "/callback"
	APIPingRoute       = clients.ApiPingRoute
	APIDevicesRoute    = APIv1Prefix + "/devices"
	APISerialPortRoute = APIv1Prefix + "/serial-ports"

	PinConnectionRoute = "/pin-connection/{protocol}/{device}"
	RunTestRoute       = "/run-test/{protocol}/{device}"
	StopTestRoute      = "/stop-test"
	RunRS485Route      = "/run-rs485"
	StopRS485Route     = "/stop-rs485"
	CustomRoute        = "/custom/{protocol}/{operation}"

	ProtocolVar  string = "protocol"
	DeviceVar    string = "device"
	OperationVar string = "operation"

	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"
)

// Protocol keys as used in routes, the device catalog and the instance registry.
const (
	ProtocolI2C  = "i2c"
	ProtocolSPI  = "spi"
	ProtocolUART = "uart"
	ProtocolPWM  = "pwm"
	ProtocolADC  = "adc"
	ProtocolGPIO = "gpio"
)

// Run kinds tracked by the supervisor. A new run of a kind cancels the previous one.
// Interactive runs preempt a soak cycle; a soak cycle never starts while one is active.
const (
	RunKindTest  = "test"
	RunKindRS485 = "rs485"
	RunKindSoak  = "soak"
)

// CustomSessionKey returns the registry key of the custom session for protocol.
func CustomSessionKey(protocol string) string {
	return "custom-" + protocol
}
