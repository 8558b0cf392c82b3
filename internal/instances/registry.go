// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package instances keeps the live hardware handles of the jig, at most
// one per key. A key is a protocol or a custom session name.
package instances

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/pkg/errors"
)

type entry struct {
	fingerprint string
	value       interface{}
}

// Registry maps keys to their active instance. Instances implementing
// io.Closer are closed when they are replaced or released.
type Registry struct {
	mutex   sync.Mutex
	lc      logger.LoggingClient
	entries map[string]*entry
}

func NewRegistry(lc logger.LoggingClient) *Registry {
	return &Registry{lc: lc, entries: make(map[string]*entry)}
}

// Acquire returns the instance registered under key when its fingerprint
// matches, otherwise it closes the old instance and registers a new one
// built by create. The returned bool reports whether the instance was
// reused.
func (r *Registry) Acquire(key, fingerprint string, create func() (interface{}, error)) (interface{}, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if e, ok := r.entries[key]; ok {
		if e.fingerprint == fingerprint {
			return e.value, true, nil
		}
		r.lc.Debug(fmt.Sprintf("Reinitializing %s instance: %s -> %s", key, e.fingerprint, fingerprint))
		delete(r.entries, key)
		if err := closeValue(e.value); err != nil {
			r.lc.Warn(fmt.Sprintf("Error closing %s instance: %v", key, err))
		}
	}

	v, err := create()
	if err != nil {
		return nil, false, errors.Wrapf(err, "could not create %s instance", key)
	}
	r.entries[key] = &entry{fingerprint: fingerprint, value: v}
	r.lc.Debug(fmt.Sprintf("Registered %s instance (%s)", key, fingerprint))
	return v, false, nil
}

// Get returns the instance under key without creating one.
func (r *Registry) Get(key string) (interface{}, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Fingerprint returns the fingerprint of the instance under key.
func (r *Registry) Fingerprint(key string) (string, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return "", false
	}
	return e.fingerprint, true
}

// Release closes and removes the instance under key. It reports whether an
// instance was registered.
func (r *Registry) Release(key string) (bool, error) {
	r.mutex.Lock()
	e, ok := r.entries[key]
	delete(r.entries, key)
	r.mutex.Unlock()

	if !ok {
		return false, nil
	}
	if err := closeValue(e.value); err != nil {
		return true, errors.Wrapf(err, "error closing %s instance", key)
	}
	return true, nil
}

// ReleaseIfCurrent releases key only while v is still its instance. An
// instance that has since been replaced is left alone.
func (r *Registry) ReleaseIfCurrent(key string, v interface{}) (bool, error) {
	r.mutex.Lock()
	e, ok := r.entries[key]
	if !ok || e.value != v {
		r.mutex.Unlock()
		return false, nil
	}
	delete(r.entries, key)
	r.mutex.Unlock()

	if err := closeValue(e.value); err != nil {
		return true, errors.Wrapf(err, "error closing %s instance", key)
	}
	return true, nil
}

// ReleaseAll closes every instance. The first close error is returned
// after all instances have been released.
func (r *Registry) ReleaseAll() error {
	r.mutex.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mutex.Unlock()

	var first error
	for key, e := range entries {
		if err := closeValue(e.value); err != nil {
			r.lc.Warn(fmt.Sprintf("Error closing %s instance: %v", key, err))
			if first == nil {
				first = errors.Wrapf(err, "error closing %s instance", key)
			}
		}
	}
	return first
}

// Keys returns the registered keys in order.
func (r *Registry) Keys() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func closeValue(v interface{}) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
