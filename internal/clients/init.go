// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package clients

import (
	"fmt"
	"net/http"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/clients"
	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/edgexfoundry/go-mod-registry/pkg/types"
	"github.com/edgexfoundry/go-mod-registry/registry"
	"github.com/jigworks/device-testjig-go/internal/common"
)

// InitDependencyClients sets up the logging client and, when the service
// runs with a registry, connects to Consul and registers the jig with its
// ping health check. The remote logging service, if enabled, must answer
// its ping before the jig starts.
func InitDependencyClients() error {
	if err := validateClientConfig(common.CurrentConfig); err != nil {
		return err
	}

	initializeLoggingClient()

	if common.CurrentConfig.Logging.EnableRemote {
		if err := checkServiceAvailable(common.ClientLogging); err != nil {
			return err
		}
	}

	if common.UseRegistry {
		if err := initializeRegistryClient(); err != nil {
			return err
		}
	}

	common.LoggingClient.Info("Service clients initialize successful.")
	return nil
}

func validateClientConfig(config *common.Config) error {
	if config.Service.Port == 0 {
		return fmt.Errorf("fatal error; Port setting for the service not configured")
	}

	if config.Logging.EnableRemote {
		if len(config.Clients[common.ClientLogging].Host) == 0 {
			return fmt.Errorf("fatal error; Host setting for Logging client not configured")
		}
		if config.Clients[common.ClientLogging].Port == 0 {
			return fmt.Errorf("fatal error; Port setting for Logging client not configured")
		}
	}

	if common.UseRegistry {
		if len(config.Registry.Host) == 0 || config.Registry.Port == 0 {
			return fmt.Errorf("fatal error; Registry host and port must be configured when --registry is used")
		}
	}

	return nil
}

func initializeLoggingClient() {
	var logTarget string
	config := common.CurrentConfig

	if config.Logging.EnableRemote {
		logTarget = config.Clients[common.ClientLogging].Url() + clients.ApiLoggingRoute
		fmt.Println("EnableRemote is true, using remote logging service")
	} else {
		logTarget = config.Logging.File
		fmt.Println("EnableRemote is false, using local log file")
	}

	common.LoggingClient = logger.NewClient(common.ServiceName, config.Logging.EnableRemote, logTarget, config.Writable.LogLevel)
}

func registryConfig(config *common.Config) types.Config {
	return types.Config{
		Host:          config.Registry.Host,
		Port:          config.Registry.Port,
		Type:          config.Registry.Type,
		Stem:          common.ConfigRegistryStem,
		CheckInterval: config.Service.CheckInterval,
		CheckRoute:    common.APIPingRoute,
		ServiceKey:    common.ServiceName,
		ServiceHost:   config.Service.Host,
		ServicePort:   config.Service.Port,
	}
}

func initializeRegistryClient() error {
	client, err := registry.NewRegistryClient(registryConfig(common.CurrentConfig))
	if err != nil {
		return fmt.Errorf("connection to Registry could not be made: %v", err)
	}

	alive := retry(common.CurrentConfig.Service, "Registry", func() bool { return client.IsAlive() })
	if !alive {
		return fmt.Errorf("registry is not available at %s:%d", common.CurrentConfig.Registry.Host, common.CurrentConfig.Registry.Port)
	}

	if err := client.Register(); err != nil {
		return fmt.Errorf("could not register service with Registry: %v", err)
	}

	common.RegistryClient = client
	common.LoggingClient.Info(fmt.Sprintf("Registered %s with the Registry", common.ServiceName))
	return nil
}

// retry calls check up to ConnectRetries times, Timeout milliseconds apart.
func retry(service common.ServiceInfo, name string, check func() bool) bool {
	tries := service.ConnectRetries
	if tries <= 0 {
		tries = 1
	}
	for i := 0; i < tries; i++ {
		if check() {
			return true
		}
		common.LoggingClient.Debug(fmt.Sprintf("Checked %d times for %s availibility", i+1, name))
		if i < tries-1 {
			time.Sleep(time.Duration(service.Timeout) * time.Millisecond)
		}
	}
	return false
}

func checkServiceAvailable(serviceId string) error {
	ok := retry(common.CurrentConfig.Service, serviceId, func() bool {
		return checkServiceAvailableByPing(serviceId) == nil
	})
	if ok {
		return nil
	}

	errMsg := fmt.Sprintf("service dependency %s checking time out", serviceId)
	common.LoggingClient.Error(errMsg)
	return fmt.Errorf(errMsg)
}

func checkServiceAvailableByPing(serviceId string) error {
	common.LoggingClient.Info(fmt.Sprintf("Check %v service's status ...", serviceId))
	addr := common.CurrentConfig.Clients[serviceId].Url()
	timeout := int64(common.CurrentConfig.Clients[serviceId].Timeout) * int64(time.Millisecond)

	client := http.Client{
		Timeout: time.Duration(timeout),
	}

	resp, err := client.Get(addr + clients.ApiPingRoute)
	if err != nil {
		common.LoggingClient.Error(fmt.Sprintf("Error getting ping: %v ", err))
		return err
	}
	resp.Body.Close()
	return nil
}
