// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"net/http"

	"github.com/flowstate/tap-station/pkg/queue"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
)

// GetDashboardData provides the full monitoring payload for the session:
// live metrics, alerts, queue detail and recent activity feeds.
func (a *APICtrl) GetDashboardData(w http.ResponseWriter, r *http.Request) {

	data, err := a.Analyzer.Dashboard(a.Config.SessionID)
	if err != nil {
		log.Errorf("Get Dashboard Data: failed to get data: %v", err)
		render.Render(w, r, ErrServer(err))
		return
	}

	// extensions may append namespaced fields to the assembled payload
	if a.Pipeline != nil {
		extra := map[string]interface{}{}
		a.Pipeline.Decorate(extra)
		if len(extra) > 0 {
			data.Extensions = extra
		}
	}

	if err := render.Render(w, r, NewDashboardResponse(data)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// --
// Request and Response payloads for the REST api.
// --

// DashboardResponse is the response payload for the dashboard.
type DashboardResponse struct {
	*queue.DashboardData
}

// NewDashboardResponse creates a rendered dashboard
func NewDashboardResponse(data *queue.DashboardData) *DashboardResponse {
	return &DashboardResponse{DashboardData: data}
}

// Render processes responses before marshalling.
func (s *DashboardResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
