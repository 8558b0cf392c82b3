// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package stream writes test output to the browser as server-sent events.
package stream

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/pkg/errors"
)

// Writer frames lines as "data:" events and flushes each one immediately.
// It is safe for concurrent use.
type Writer struct {
	mutex   sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	id      string
	err     error
}

// NewWriter prepares w for streaming. The id, if not empty, is sent as
// the event id of every event.
func NewWriter(w http.ResponseWriter, id string) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported by response writer")
	}

	h := w.Header()
	h.Set("Content-Type", common.ContentTypeEventStream)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher, id: id}, nil
}

// Send writes one event. Multi-line text becomes several data fields of
// the same event. After the first write error every call is a no-op and
// Err reports that error.
func (s *Writer) Send(line string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return
	}

	var b strings.Builder
	if s.id != "" {
		fmt.Fprintf(&b, "id: %s\n", s.id)
	}
	for _, l := range strings.Split(strings.TrimRight(line, "\r\n"), "\n") {
		fmt.Fprintf(&b, "data: %s\n", strings.TrimRight(l, "\r"))
	}
	b.WriteString("\n")

	if _, err := s.w.Write([]byte(b.String())); err != nil {
		s.err = err
		return
	}
	s.flusher.Flush()
}

// Err returns the first write error, if any.
func (s *Writer) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.err
}
