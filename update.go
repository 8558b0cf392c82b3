// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0
//
package testjig

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jigworks/device-testjig-go/internal/cache"
	"github.com/jigworks/device-testjig-go/internal/common"
)

// callbackAlert is the body of a change notification.
type callbackAlert struct {
	ActionType string `json:"type"`
	Id         string `json:"id"`
}

const actionCatalog = "CATALOG"

// callbackHandler reloads the device catalog when notified that
// devices.yaml changed. Other actions are acknowledged and ignored.
func (s *Service) callbackHandler(w http.ResponseWriter, req *http.Request) {
	dec := json.NewDecoder(req.Body)
	cbAlert := callbackAlert{}

	err := dec.Decode(&cbAlert)
	if err != nil {
		s.lc.Error(fmt.Sprintf("callbackHandler invalid request: %v", err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	action := strings.ToUpper(cbAlert.ActionType)
	s.lc.Debug(fmt.Sprintf("callbackHandler method: %s - action: %s - id: %s", req.Method, action, cbAlert.Id))

	if action == actionCatalog {
		if err := cache.Reload(common.ConfigDir); err != nil {
			s.lc.Error(fmt.Sprintf("Device catalog reload failed: %v", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.lc.Info(fmt.Sprintf("Device catalog reloaded, %d devices", len(cache.Devices().All())))
	}

	io.WriteString(w, "OK")
}

func initUpdate(s *Service) {
	s.r.HandleFunc(common.APICallbackRoute, s.callbackHandler).Methods(http.MethodPost, http.MethodPut)
}
