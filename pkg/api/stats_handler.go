// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"net/http"
	"time"

	"github.com/flowstate/tap-station/pkg/stor"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
)

// Health reports whether the service and its store are reachable. A failed
// store query yields an explicit error response, which lets a monitor tell
// "query failed" apart from "no data yet".
func (a *APICtrl) Health(w http.ResponseWriter, r *http.Request) {

	count, err := a.Store.Event().Count(a.Config.SessionID)
	if err != nil {
		log.Errorf("Health check failed: %v", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]interface{}{
			"status":    "error",
			"error":     err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":       "ok",
		"device_id":    a.Config.DeviceID,
		"stage":        a.Config.Stage,
		"session":      a.Config.SessionID,
		"total_events": count,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}

// GetStats returns general session statistics: the event total and the most
// recent raw events.
func (a *APICtrl) GetStats(w http.ResponseWriter, r *http.Request) {

	sessionID := a.Config.SessionID

	count, err := a.Store.Event().Count(sessionID)
	if err != nil {
		log.Errorf("API stats failed: %v", err)
		render.Render(w, r, ErrServer(err))
		return
	}
	recent, err := a.Store.Event().ListRecent(sessionID, 10)
	if err != nil {
		log.Errorf("API stats failed: %v", err)
		render.Render(w, r, ErrServer(err))
		return
	}

	stats := &StatsResponse{
		DeviceID:     a.Config.DeviceID,
		Stage:        a.Config.Stage,
		SessionID:    sessionID,
		TotalEvents:  count,
		RecentEvents: *recent,
		Timestamp:    time.Now().Format(time.RFC3339),
	}
	if err := render.Render(w, r, stats); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// --
// Request and Response payloads for the REST api.
// --

// StatsResponse is the response payload for session statistics.
type StatsResponse struct {
	DeviceID     string       `json:"device_id"`
	Stage        string       `json:"stage"`
	SessionID    string       `json:"session_id"`
	TotalEvents  int64        `json:"total_events"`
	RecentEvents []stor.Event `json:"recent_events"`
	Timestamp    string       `json:"timestamp"`
}

// Render processes responses before marshalling.
func (s *StatsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
