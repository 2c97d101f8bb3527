// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flowstate/tap-station/pkg/ingest"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
)

// IngestEvents accepts a JSON array of event-like records submitted by
// mobile devices and reports per-item outcomes. Item-level faults are
// counted, never escalated to the whole request.
func (a *APICtrl) IngestEvents(w http.ResponseWriter, r *http.Request) {

	var items []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		log.Errorf("error decoding an ingest request: %v", err)
		render.Render(w, r, ErrInvalidRequest(errors.New("expected a list of events")))
		return
	}

	summary, err := a.Gateway.IngestBatch(items)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrBatchTooLarge):
			render.Render(w, r, ErrPayloadTooLarge(err))
		case errors.Is(err, ingest.ErrEmptyBatch):
			render.Render(w, r, ErrInvalidRequest(err))
		default:
			render.Render(w, r, ErrServer(err))
		}
		return
	}

	if err := render.Render(w, r, NewIngestResponse(summary)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// --
// Request and Response payloads for the REST api.
// --

// IngestResponse is the response payload for batch ingestion.
type IngestResponse struct {
	Status  string          `json:"status"`
	Summary *ingest.Summary `json:"summary"`
}

// NewIngestResponse creates a rendered ingestion summary.
func NewIngestResponse(summary *ingest.Summary) *IngestResponse {
	return &IngestResponse{Status: "ok", Summary: summary}
}

// Render processes responses before marshalling.
func (s *IngestResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
