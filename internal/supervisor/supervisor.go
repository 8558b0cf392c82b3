// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package supervisor tracks the active streaming run of each kind. Starting
// a run cancels the previous run of the same kind; stopping cancels it.
package supervisor

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Run is a handle on one streaming run.
type Run struct {
	ID     string
	Kind   string
	Ctx    context.Context
	cancel context.CancelFunc
	sup    *Supervisor
}

// Done releases the run. It is a no-op if a newer run has replaced it.
func (r *Run) Done() {
	r.cancel()
	r.sup.clear(r)
}

// Supervisor owns the cancel functions of the active runs.
type Supervisor struct {
	mutex  sync.Mutex
	active map[string]*Run
}

func New() *Supervisor {
	return &Supervisor{active: make(map[string]*Run)}
}

// Begin starts a run of kind bound to parent, cancelling the previous run
// of that kind and any active run of the preempted kinds.
func (s *Supervisor) Begin(parent context.Context, kind string, preempt ...string) *Run {
	r := s.newRun(parent, kind)

	s.mutex.Lock()
	cancelled := []*Run{s.active[kind]}
	for _, k := range preempt {
		cancelled = append(cancelled, s.active[k])
		delete(s.active, k)
	}
	s.active[kind] = r
	s.mutex.Unlock()

	for _, prev := range cancelled {
		if prev != nil {
			prev.cancel()
		}
	}
	return r
}

// TryBegin starts a run of kind only if no run of kind or of any of the
// blocking kinds is active. The check and the start are atomic.
func (s *Supervisor) TryBegin(parent context.Context, kind string, blockers ...string) (*Run, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, k := range append([]string{kind}, blockers...) {
		if _, busy := s.active[k]; busy {
			return nil, false
		}
	}
	r := s.newRun(parent, kind)
	s.active[kind] = r
	return r, true
}

func (s *Supervisor) newRun(parent context.Context, kind string) *Run {
	ctx, cancel := context.WithCancel(parent)
	return &Run{ID: uuid.New().String(), Kind: kind, Ctx: ctx, cancel: cancel, sup: s}
}

// Stop cancels the active run of kind and reports whether there was one.
func (s *Supervisor) Stop(kind string) bool {
	s.mutex.Lock()
	r := s.active[kind]
	delete(s.active, kind)
	s.mutex.Unlock()

	if r == nil {
		return false
	}
	r.cancel()
	return true
}

// StopAll cancels every active run.
func (s *Supervisor) StopAll() {
	s.mutex.Lock()
	runs := s.active
	s.active = make(map[string]*Run)
	s.mutex.Unlock()

	for _, r := range runs {
		r.cancel()
	}
}

// Active reports whether a run of kind is in progress.
func (s *Supervisor) Active(kind string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.active[kind]
	return ok
}

func (s *Supervisor) clear(r *Run) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.active[r.Kind] == r {
		delete(s.active, r.Kind)
	}
}
