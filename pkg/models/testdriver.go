// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// This package defines the interfaces used to plug device tests into the
// jig service. A driver provides the device specific logic; the service
// owns the streaming loop, the run lifecycle and the instance registry.
//
package models

import (
	"context"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
)

// Emitter sends one line of test output to whoever is watching the run.
type Emitter func(line string)

// TestDriver is a low-level device-specific interface used by the
// streaming test loop to exercise a single device module.
type TestDriver interface {
	// RunCycle performs one test iteration and reports its outcome
	// through emit. An empty line is reported as "No connections present".
	// A returned error ends nothing: the loop formats it for the device
	// and carries on with the next cycle.
	RunCycle(ctx context.Context, emit Emitter) error
}

// Initializer is implemented by drivers which need a one time setup
// before the first cycle of a run, e.g. to bring up a display.
type Initializer interface {
	Initialize(ctx context.Context, emit Emitter) error
}

// Persistent marks a driver whose instance outlives a single run. The
// instance is kept in the registry and reused by later runs of the same
// device until the test is explicitly stopped.
type Persistent interface {
	Persistent() bool
}

// DriverFactory creates a driver for one device of a protocol.
type DriverFactory func(lc logger.LoggingClient) (TestDriver, error)

// Fingerprinter is implemented by persistent drivers whose instance must
// be rebuilt when their settings change.
type Fingerprinter interface {
	Fingerprint() string
}
