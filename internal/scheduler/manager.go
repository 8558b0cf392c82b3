// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package scheduler runs unattended soak tests of jig devices on cron
// schedules. Each job runs one test cycle and logs what the device said.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/supervisor"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
	"gopkg.in/robfig/cron.v2"
)

// TestRunner runs single test cycles. It is implemented by the dispatcher.
type TestRunner interface {
	Schedulable(protocol, device string) error
	RunOnce(ctx context.Context, protocol, device string, emit models.Emitter) error
}

// RunClaimer hands out the hardware for one soak cycle. It is implemented
// by the run supervisor.
type RunClaimer interface {
	TryBegin(parent context.Context, kind string, blockers ...string) (*supervisor.Run, bool)
}

// Manager owns the cron runner and the registered soak schedules.
type Manager struct {
	mutex   sync.Mutex
	lc      logger.LoggingClient
	runner  TestRunner
	runs    RunClaimer
	cr      *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewManager creates a stopped scheduler. A job runs only if it can claim
// a soak run from runs; it is skipped while a test or RS-485 run, or
// another soak cycle, is active.
func NewManager(lc logger.LoggingClient, runner TestRunner, runs RunClaimer) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		lc:      lc,
		runner:  runner,
		runs:    runs,
		cr:      cron.New(),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// StartScheduler registers the configured schedules and starts the cron
// runner. Invalid schedules are logged and skipped.
func (m *Manager) StartScheduler(schedules []common.ScheduleInfo) {
	for _, sch := range schedules {
		if err := m.AddSchedule(sch); err != nil {
			m.lc.Error(err.Error())
		}
	}
	m.cr.Start()
	m.lc.Info(fmt.Sprintf("Started internal scheduler with %d schedules", len(m.Names())))
}

func (m *Manager) AddSchedule(sch common.ScheduleInfo) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.entries[sch.Name]; ok {
		return fmt.Errorf("Schedule %s already exists in scheduler", sch.Name)
	}
	if err := m.runner.Schedulable(sch.Protocol, sch.Device); err != nil {
		return errors.Wrapf(err, "Schedule %s cannot be added", sch.Name)
	}

	job := &soakJob{m: m, sch: sch}
	entry, err := m.cr.AddJob(sch.Cron, job)
	if err != nil {
		return errors.Wrapf(err, "Schedule %s has an invalid cron spec %q", sch.Name, sch.Cron)
	}
	m.entries[sch.Name] = entry
	m.lc.Info(fmt.Sprintf("Initialized schedule %s (%s %s, %s)", sch.Name, sch.Protocol, sch.Device, sch.Cron))
	return nil
}

func (m *Manager) RemoveSchedule(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry, ok := m.entries[name]
	if !ok {
		return fmt.Errorf("Schedule %s does not exist in scheduler", name)
	}
	m.cr.Remove(entry)
	delete(m.entries, name)
	return nil
}

// Names returns the names of the registered schedules.
func (m *Manager) Names() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	return names
}

// StopScheduler stops the cron runner and cancels the jobs in flight.
func (m *Manager) StopScheduler() {
	m.cr.Stop()
	m.cancel()
	m.lc.Info("Stopped internal scheduler")
}

type soakJob struct {
	m   *Manager
	sch common.ScheduleInfo
}

func (j *soakJob) Run() {
	m := j.m
	run, ok := m.runs.TryBegin(m.ctx, common.RunKindSoak, common.RunKindTest, common.RunKindRS485)
	if !ok {
		m.lc.Info(fmt.Sprintf("Schedule %s skipped: the hardware is in use", j.sch.Name))
		return
	}
	defer run.Done()

	err := m.runner.RunOnce(run.Ctx, j.sch.Protocol, j.sch.Device, func(line string) {
		m.lc.Info(fmt.Sprintf("Schedule %s: %s", j.sch.Name, line))
	})
	if err != nil && run.Ctx.Err() == nil {
		m.lc.Error(fmt.Sprintf("Schedule %s failed: %v", j.sch.Name, err))
	}
}
