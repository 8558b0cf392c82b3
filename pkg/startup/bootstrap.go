// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package startup parses the command line and runs the jig service until
// it is interrupted.
package startup

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"syscall"

	testjig "github.com/jigworks/device-testjig-go"
	"github.com/jigworks/device-testjig-go/internal/cache"
	"github.com/jigworks/device-testjig-go/internal/clients"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/config"
	"github.com/jigworks/device-testjig-go/internal/hal"
)

// Options are the command line settings of the service.
type Options struct {
	UseRegistry bool
	Profile     string
	ConfDir     string
}

// usageOutput receives the usage text and flag errors.
var usageOutput io.Writer = os.Stderr

// ParseFlags reads the options from args, which excludes the program name.
// Usage is printed on -h and on a bad flag; -h yields flag.ErrHelp.
func ParseFlags(serviceName string, args []string) (Options, error) {
	var o Options
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(usageOutput)
	fs.Usage = func() {
		fmt.Fprintf(usageOutput, "Usage: %s [options]\n", serviceName)
		fs.PrintDefaults()
	}
	fs.BoolVar(&o.UseRegistry, "registry", false, "Indicates the service should use the registry.")
	fs.BoolVar(&o.UseRegistry, "r", false, "Indicates the service should use registry.")
	fs.StringVar(&o.Profile, "profile", "", "Specify a profile other than default.")
	fs.StringVar(&o.Profile, "p", "", "Specify a profile other than default.")
	fs.StringVar(&o.ConfDir, "confdir", "", "Specify an alternate configuration directory.")
	fs.StringVar(&o.ConfDir, "c", "", "Specify an alternate configuration directory.")
	err := fs.Parse(args)
	return o, err
}

// Bootstrap runs the service until SIGINT or SIGTERM and exits the
// process on failure.
func Bootstrap(serviceName string, serviceVersion string) {
	o, err := ParseFlags(serviceName, os.Args[1:])
	if err != nil {
		os.Exit(flagExitCode(err))
	}
	if err := startService(serviceName, serviceVersion, o); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func flagExitCode(err error) int {
	if err == flag.ErrHelp {
		return 0
	}
	return 2
}

// catalogDir is the directory of devices.yaml. A profile selects a
// subdirectory the same way it does for configuration.toml.
func catalogDir(o Options) string {
	if len(o.Profile) == 0 {
		return o.ConfDir
	}
	confDir := o.ConfDir
	if len(confDir) == 0 {
		confDir = common.ConfigDirectory
	}
	return path.Join(confDir, o.Profile)
}

func startService(serviceName string, serviceVersion string, o Options) error {
	configuration, err := config.LoadConfig(o.Profile, o.ConfDir)
	if err != nil {
		return fmt.Errorf("couldn't read configuration: %v", err)
	}

	common.ServiceName = serviceName
	common.ServiceVersion = serviceVersion
	common.ConfigDir = catalogDir(o)
	common.CurrentConfig = configuration
	common.UseRegistry = o.UseRegistry

	if err := clients.InitDependencyClients(); err != nil {
		return err
	}
	if err := hal.Init(); err != nil {
		common.LoggingClient.Warn(fmt.Sprintf("Hardware access unavailable, tests will report errors: %v", err))
	}
	cache.InitCache(common.ConfigDir)

	s, err := testjig.NewService(configuration, common.LoggingClient)
	if err != nil {
		return err
	}

	errs := make(chan error, 2)
	listenForInterrupt(errs)
	if err := s.Start(errs); err != nil {
		return err
	}

	err = <-errs
	common.LoggingClient.Info(fmt.Sprintf("Terminating: %v", err))
	return s.Stop(false)
}

func listenForInterrupt(errChan chan error) {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errChan <- fmt.Errorf("%s", <-c)
	}()
}
