// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The queue package derives live queue state from the append-only event log:
// who is currently waiting, completed journeys and their wait times, and the
// operational metrics shown on the monitoring dashboard. Nothing here is
// cached or materialized; every call recomputes from current log contents.
package queue

import (
	"sync"
	"time"

	"github.com/flowstate/tap-station/pkg/conf"
	"github.com/flowstate/tap-station/pkg/stor"
)

// Analyzer computes derived queue state for one store.
type Analyzer struct {
	Config *conf.Config
	Store  stor.Store

	// Now is the clock used for ages and windows; tests override it.
	Now func() time.Time

	mu     sync.RWMutex
	tuning conf.Queue
}

// NewAnalyzer returns an analyzer bound to a configuration and a store.
func NewAnalyzer(cf *conf.Config, st stor.Store) *Analyzer {
	return &Analyzer{
		Config: cf,
		Store:  st,
		Now:    time.Now,
		tuning: cf.Queue,
	}
}

// SetTuning swaps the queue tuning values; called on configuration reload.
func (a *Analyzer) SetTuning(q conf.Queue) {
	a.mu.Lock()
	a.tuning = q
	a.mu.Unlock()
}

// Tuning returns the current tuning snapshot.
func (a *Analyzer) Tuning() conf.Queue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tuning
}

// minutesBetween returns whole minutes between two instants, truncating.
func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from).Minutes())
}
