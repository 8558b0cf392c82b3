// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jigworks/device-testjig-go/internal/common"
)

var (
	initOnce sync.Once
	dc       *deviceCache
)

// InitCache loads the device catalog from confDir once. When the file is
// missing or invalid the built-in catalog is used instead.
func InitCache(confDir string) {
	initOnce.Do(func() {
		protocols, err := loadOrBuiltin(confDir)
		if err != nil {
			common.LoggingClient.Error(fmt.Sprintf("Device catalog initialization failed, using built-in catalog: %v", err))
		}
		dc = newDeviceCache(protocols)
		common.LoggingClient.Info(fmt.Sprintf("Device catalog initialized with %d protocols", len(protocols)))
	})
}

// Reload re-reads the catalog file and swaps it in. The current catalog is
// kept if the file cannot be loaded.
func Reload(confDir string) error {
	InitCache(confDir)
	protocols, err := loadCatalogFile(catalogPath(confDir))
	if err != nil {
		return err
	}
	dc.replace(protocols)
	return nil
}

// Devices returns the device catalog. InitCache must be called first.
func Devices() DeviceCache {
	return dc
}

func catalogPath(confDir string) string {
	if len(confDir) == 0 {
		confDir = common.ConfigDirectory
	}
	return filepath.Join(confDir, common.CatalogFileName)
}

func loadOrBuiltin(confDir string) (map[string]map[string]Device, error) {
	protocols, err := loadCatalogFile(catalogPath(confDir))
	if err == nil {
		return protocols, nil
	}
	builtin, berr := parseCatalog([]byte(builtinCatalog))
	if berr != nil {
		panic(berr)
	}
	return builtin, err
}
