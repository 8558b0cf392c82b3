// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// PinConnection is one wire between the jig socket and the device module.
type PinConnection struct {
	Label string `yaml:"label" json:"label"`
	Pin   string `yaml:"pin" json:"pin"`
}

// Device is a catalog entry for a testable device module.
type Device struct {
	Protocol string          `yaml:"-" json:"protocol"`
	Key      string          `yaml:"-" json:"key"`
	Name     string          `yaml:"name" json:"name"`
	Pins     []PinConnection `yaml:"pins" json:"pins"`
}

// PinMap returns the pin connections keyed by label.
func (d Device) PinMap() map[string]string {
	m := make(map[string]string, len(d.Pins))
	for _, p := range d.Pins {
		m[p.Label] = p.Pin
	}
	return m
}

type catalogFile struct {
	Protocols map[string]map[string]Device `yaml:"protocols"`
}

// DeviceCache holds the device catalog keyed by lower-case protocol and device.
type DeviceCache interface {
	ForName(protocol, device string) (Device, bool)
	HasProtocol(protocol string) bool
	Protocols() []string
	All() []Device
}

type deviceCache struct {
	mutex     sync.RWMutex
	protocols map[string]map[string]Device
}

func (c *deviceCache) ForName(protocol, device string) (Device, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	devices, ok := c.protocols[strings.ToLower(protocol)]
	if !ok {
		return Device{}, false
	}
	d, ok := devices[strings.ToLower(device)]
	return d, ok
}

func (c *deviceCache) HasProtocol(protocol string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.protocols[strings.ToLower(protocol)]
	return ok
}

func (c *deviceCache) Protocols() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	ps := make([]string, 0, len(c.protocols))
	for p := range c.protocols {
		ps = append(ps, p)
	}
	sort.Strings(ps)
	return ps
}

func (c *deviceCache) All() []Device {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var ds []Device
	for _, devices := range c.protocols {
		for _, d := range devices {
			ds = append(ds, d)
		}
	}
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].Protocol != ds[j].Protocol {
			return ds[i].Protocol < ds[j].Protocol
		}
		return ds[i].Key < ds[j].Key
	})
	return ds
}

func (c *deviceCache) replace(protocols map[string]map[string]Device) {
	c.mutex.Lock()
	c.protocols = protocols
	c.mutex.Unlock()
}

func newDeviceCache(protocols map[string]map[string]Device) *deviceCache {
	return &deviceCache{protocols: protocols}
}

func parseCatalog(contents []byte) (map[string]map[string]Device, error) {
	var f catalogFile
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return nil, errors.Wrap(err, "invalid device catalog")
	}
	if len(f.Protocols) == 0 {
		return nil, errors.New("device catalog defines no protocols")
	}

	protocols := make(map[string]map[string]Device, len(f.Protocols))
	for p, devices := range f.Protocols {
		pKey := strings.ToLower(p)
		entries := make(map[string]Device, len(devices))
		for k, d := range devices {
			dKey := strings.ToLower(k)
			d.Protocol = pKey
			d.Key = dKey
			entries[dKey] = d
		}
		protocols[pKey] = entries
	}
	return protocols, nil
}

func loadCatalogFile(path string) (map[string]map[string]Device, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read device catalog (%s)", path)
	}
	return parseCatalog(contents)
}
