// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package api manages the api controllers
package api

import (
	"github.com/flowstate/tap-station/pkg/conf"
	"github.com/flowstate/tap-station/pkg/ext"
	"github.com/flowstate/tap-station/pkg/ingest"
	"github.com/flowstate/tap-station/pkg/queue"
	"github.com/flowstate/tap-station/pkg/stor"
)

// APICtrl contains the context required by http handlers.
type APICtrl struct {
	*conf.Config
	stor.Store
	Analyzer *queue.Analyzer
	Gateway  *ingest.Gateway
	Pipeline *ext.Pipeline
}

// NewAPICtrl returns a new API controller
func NewAPICtrl(cf *conf.Config, st stor.Store, an *queue.Analyzer, gw *ingest.Gateway, pl *ext.Pipeline) *APICtrl {
	return &APICtrl{
		Config:   cf,
		Store:    st,
		Analyzer: an,
		Gateway:  gw,
		Pipeline: pl,
	}
}
