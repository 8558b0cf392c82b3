// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package testjig

import (
	"net/http"
	"path/filepath"

	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/handler"
)

func initRestRoutes(s *Service) {
	c := s.controller
	s.r.HandleFunc(common.PinConnectionRoute, c.PinConnectionHandler).Methods(http.MethodGet)
	s.r.HandleFunc(common.RunTestRoute, c.RunTestHandler).Methods(http.MethodGet)
	s.r.HandleFunc(common.StopTestRoute, c.StopTestHandler).Methods(http.MethodPost)
	s.r.HandleFunc(common.RunRS485Route, c.RunRS485Handler).Methods(http.MethodGet)
	s.r.HandleFunc(common.StopRS485Route, c.StopRS485Handler).Methods(http.MethodPost)
	s.r.HandleFunc(common.CustomRoute, c.CustomHandler).Methods(http.MethodPost)

	s.r.HandleFunc(common.APIPingRoute, handler.PingHandler).Methods(http.MethodGet)
	s.r.HandleFunc(common.APIDevicesRoute, c.DevicesHandler).Methods(http.MethodGet)
	s.r.HandleFunc(common.APISerialPortRoute, c.SerialPortsHandler).Methods(http.MethodGet)

	root := s.svcInfo.WebRoot
	for route, page := range map[string]string{
		"/":              "homepage.html",
		"/homepage.html": "homepage.html",
		"/testjig.html":  "testjig.html",
		"/rs485.html":    "rs485.html",
	} {
		s.r.HandleFunc(route, servePage(filepath.Join(root, page))).Methods(http.MethodGet)
	}
	s.r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(filepath.Join(root, "static")))))
}

func servePage(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, path)
	}
}
