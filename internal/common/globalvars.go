// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/edgexfoundry/go-mod-registry/registry"
)

var (
	ServiceName    string
	ServiceVersion string
	ConfigDir      string
	CurrentConfig  *Config
	UseRegistry    bool
	RegistryClient registry.Client
	LoggingClient  logger.LoggingClient
)
