// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"

	"github.com/flowstate/tap-station/pkg/queue"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
)

// GetTokenStatus returns the current status of one participant token:
// not checked in, in queue, or complete, with the relevant timestamps and
// wait figures. An unknown token is a normal zero-valued result.
func (a *APICtrl) GetTokenStatus(w http.ResponseWriter, r *http.Request) {

	tokenID := chi.URLParam(r, "tokenID")
	if tokenID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required token ID")))
		return
	}

	status, err := a.Analyzer.TokenStatus(a.Config.SessionID, tokenID)
	if err != nil {
		log.Errorf("Status check failed for token %s: %v", tokenID, err)
		render.Render(w, r, ErrServer(err))
		return
	}

	if err := render.Render(w, r, NewTokenStatusResponse(status)); err != nil {
		render.Render(w, r, ErrRender(err))
	}
}

// --
// Request and Response payloads for the REST api.
// --

// TokenStatusResponse is the response payload for the status lookup.
type TokenStatusResponse struct {
	*queue.TokenStatus
}

// NewTokenStatusResponse creates a rendered token status.
func NewTokenStatusResponse(status *queue.TokenStatus) *TokenStatusResponse {
	return &TokenStatusResponse{TokenStatus: status}
}

// Render processes responses before marshalling.
func (s *TokenStatusResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
