// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package custom implements the interactive bus sessions of the jig:
// raw I2C, SPI, UART and PWM operations requested one at a time from the
// browser. Sessions are kept in the instance registry between requests.
package custom

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/instances"
	"github.com/pkg/errors"
)

var (
	ErrUnknownProtocol  = errors.New("unknown protocol")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMalformedBody    = errors.New("malformed request body")
)

// Result is the JSON body returned for an operation. It always carries
// "success" and "message".
type Result map[string]interface{}

func ok(message string) Result {
	return Result{"success": true, "message": message}
}

func fail(err error) Result {
	return Result{"success": false, "message": fmt.Sprintf("Error: %v", err)}
}

func (r Result) with(key string, v interface{}) Result {
	r[key] = v
	return r
}

type session interface {
	io.Closer
	do(op string, body []byte) Result
}

// lockedSession runs the operations of one session one at a time. Once
// closed it refuses further operations so a released handle is never
// touched again.
type lockedSession struct {
	mutex  sync.Mutex
	s      session
	closed bool
}

func (l *lockedSession) run(op string, body []byte) (Result, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return nil, false
	}
	return l.s.do(op, body), true
}

func (l *lockedSession) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.s.Close()
}

// protocol describes how to open a session and which operations it takes.
type protocol struct {
	name string
	ops  []string
	// open decodes the connection settings from body. It returns their
	// fingerprint and a constructor for the session.
	open func(body []byte) (string, func() (interface{}, error), error)
}

func (p protocol) supports(op string) bool {
	for _, o := range p.ops {
		if o == op {
			return true
		}
	}
	return false
}

// Manager dispatches custom operations to the session of each protocol.
type Manager struct {
	lc        logger.LoggingClient
	registry  *instances.Registry
	protocols map[string]protocol
}

func NewManager(lc logger.LoggingClient, registry *instances.Registry, hw common.HardwareInfo) *Manager {
	m := &Manager{lc: lc, registry: registry, protocols: make(map[string]protocol)}
	for _, p := range []protocol{i2cProtocol(hw), spiProtocol(), uartProtocol(hw), pwmProtocol()} {
		m.protocols[p.name] = p
	}
	return m
}

// Protocols lists the protocols with custom sessions.
func (m *Manager) Protocols() []string {
	names := make([]string, 0, len(m.protocols))
	for n := range m.protocols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isRelease(op string) bool {
	return op == "close" || op == "cleanup"
}

// Do runs op on the session of proto. Hardware failures are reported in
// the result; the error is reserved for requests that cannot be routed
// or decoded.
func (m *Manager) Do(proto, op string, body []byte) (Result, error) {
	proto, op = strings.ToLower(proto), strings.ToLower(op)
	p, found := m.protocols[proto]
	if !found {
		return nil, ErrUnknownProtocol
	}
	if !isRelease(op) && !p.supports(op) {
		return nil, ErrUnknownOperation
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return nil, ErrMalformedBody
	}

	key := common.CustomSessionKey(proto)
	label := strings.ToUpper(proto)
	if isRelease(op) {
		released, err := m.registry.Release(key)
		if err != nil {
			m.lc.Warn(fmt.Sprintf("Custom %s release: %v", label, err))
			return fail(err), nil
		}
		if !released {
			return ok(fmt.Sprintf("No active %s session", label)), nil
		}
		m.lc.Info(fmt.Sprintf("Custom %s session closed", label))
		return ok(fmt.Sprintf("%s session closed", label)), nil
	}

	fingerprint, create, err := p.open(body)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedBody, err.Error())
	}
	guarded := func() (interface{}, error) {
		v, err := create()
		if err != nil {
			return nil, err
		}
		return &lockedSession{s: v.(session)}, nil
	}
	// A session closed by another request between Acquire and run is
	// acquired again.
	for {
		v, reused, err := m.registry.Acquire(key, fingerprint, guarded)
		if err != nil {
			m.lc.Error(fmt.Sprintf("Custom %s session could not be opened: %v", label, err))
			return fail(errors.Cause(err)), nil
		}
		if !reused {
			m.lc.Info(fmt.Sprintf("Custom %s session opened (%s)", label, fingerprint))
		}
		res, live := v.(*lockedSession).run(op, body)
		if live {
			m.lc.Debug(fmt.Sprintf("Custom %s %s: %v", label, op, res["message"]))
			return res, nil
		}
		m.lc.Debug(fmt.Sprintf("Custom %s session closed before %s, reacquiring", label, op))
	}
}

// decodeArgs fills v from the operation fields of body.
func decodeArgs(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}

// hexList renders bytes as "['0x1', '0xff']".
func hexList(b []byte) string {
	return "[" + strings.Join(quoted(hexStrings(b)), ", ") + "]"
}

func hexStrings(b []byte) []string {
	s := make([]string, len(b))
	for i, v := range b {
		s[i] = "0x" + strconv.FormatUint(uint64(v), 16)
	}
	return s
}

func quoted(s []string) []string {
	q := make([]string, len(s))
	for i, v := range s {
		q[i] = "'" + v + "'"
	}
	return q
}

// toBytes checks that every value fits a byte.
func toBytes(values []int) ([]byte, error) {
	b := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 0xff {
			return nil, errors.Errorf("value %d out of byte range", v)
		}
		b[i] = byte(v)
	}
	return b, nil
}

func ints(b []byte) []int {
	v := make([]int, len(b))
	for i, x := range b {
		v[i] = int(x)
	}
	return v
}

// number prints a float without a trailing ".0" for whole values.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func level(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
