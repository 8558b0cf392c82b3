// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package spidev

import (
	"context"

	"github.com/jigworks/device-testjig-go/pkg/models"
)

// SDCard only reports that the socket has no automated test yet.
type SDCard struct{}

func (SDCard) RunCycle(ctx context.Context, emit models.Emitter) error {
	emit("(Test for SD Card Module not implemented)")
	return nil
}
