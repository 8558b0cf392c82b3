// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// This package runs the browser driven hardware test jig.
package main

import (
	"github.com/jigworks/device-testjig-go/pkg/startup"
)

const (
	version     string = "0.1"
	serviceName string = "device-testjig"
)

func main() {
	startup.Bootstrap(serviceName, version)
}
