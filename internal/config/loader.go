// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/pelletier/go-toml"
)

// LoadConfig loads the local configuration file based upon the
// specified parameters and returns a pointer to the global Config
// struct which holds all of the local configuration settings for
// the jig. The profile and confDir are used to locate the local TOML
// config file.
func LoadConfig(profile string, confDir string) (*common.Config, error) {
	fmt.Fprintf(os.Stdout, "Init: profile: %s confDir: %s\n", profile, confDir)

	if len(profile) > 0 {
		confDir = path.Join(confDirOrDefault(confDir), profile)
	}
	config, err := loadConfigFromFile(confDir)
	if err != nil {
		return nil, err
	}
	applyDefaults(config)
	return config, nil
}

func confDirOrDefault(confDir string) string {
	if len(confDir) == 0 {
		return common.ConfigDirectory
	}
	return confDir
}

func loadConfigFromFile(confDir string) (config *common.Config, err error) {
	path := path.Join(confDirOrDefault(confDir), common.ConfigFileName)
	absPath, err := filepath.Abs(path)
	if err != nil {
		err = fmt.Errorf("Could not create absolute path to load configuration: %s; %v", path, err.Error())
		return nil, err
	}
	fmt.Fprintln(os.Stdout, fmt.Sprintf("Loading configuration from: %s\n", absPath))

	// As the toml package can panic if TOML is invalid,
	// or elements are found that don't match members of
	// the given struct, use a defered func to recover
	// from the panic and output a useful error.
	defer func() {
		if r := recover(); r != nil {
			config = nil
			err = fmt.Errorf("could not load configuration file; invalid TOML (%s)", path)
		}
	}()

	config = &common.Config{}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Could not load configuration file (%s): %v\nBe sure to change to program folder or set working directory.", path, err.Error())
	}

	err = toml.Unmarshal(contents, config)
	if err != nil {
		return nil, fmt.Errorf("unable to parse configuration file (%s): %v", path, err.Error())
	}

	return config, nil
}

// applyDefaults fills in the jig wiring of the reference board for any
// setting left empty in the file.
func applyDefaults(c *common.Config) {
	if c.Service.Port == 0 {
		c.Service.Port = 8000
	}
	if c.Service.WebRoot == "" {
		c.Service.WebRoot = "./web"
	}
	if c.Logging.File == "" {
		c.Logging.File = "./device-testjig.log"
	}
	if c.Writable.LogLevel == "" {
		c.Writable.LogLevel = "INFO"
	}

	hw := &c.Hardware
	setDefault(&hw.I2CBus, "1")
	setDefault(&hw.SPIPort, "/dev/spidev0.0")
	setDefault(&hw.SPIOLEDPort, "/dev/spidev0.0")
	setDefault(&hw.ADCPort, "/dev/spidev0.1")
	setDefault(&hw.UARTPort, "/dev/ttyS0")
	setDefault(&hw.LEDPin, "GPIO5")
	setDefault(&hw.ButtonPin, "GPIO6")
	setDefault(&hw.FadePin, "GPIO18")
	setDefault(&hw.ServoPin, "GPIO25")
	setDefault(&hw.TriggerPin, "GPIO26")
	setDefault(&hw.EchoPin, "GPIO19")
	setDefault(&hw.OLEDDCPin, "GPIO24")
	setDefault(&hw.OLEDResetPin, "GPIO25")
	setDefault(&hw.DHT11Path, "/sys/bus/iio/devices/iio:device0")
	setDefault(&hw.OneWirePath, "/sys/bus/w1/devices")
	if hw.UARTBaudRate == 0 {
		hw.UARTBaudRate = 9600
	}
	if len(hw.RGBPins) == 0 {
		hw.RGBPins = []string{"GPIO23", "GPIO24", "GPIO22"}
	}
	if hw.ADCChannels == nil {
		hw.ADCChannels = map[string]int{"pot": 1, "tds": 0, "ldr": 2}
	}

	setDefault(&c.RS485.Port, "/dev/ttyUSB0")
}

func setDefault(s *string, v string) {
	if *s == "" {
		*s = v
	}
}
