// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The ext package defines the extension points of the tap station. An
// extension may transform a tap event before it is committed to the log and
// may decorate the assembled dashboard statistics. Events flow through hooks
// by value: a hook receives an event and returns the event to commit, so no
// shared mutable state is ever visited.
package ext

import (
	"sort"

	"github.com/flowstate/tap-station/pkg/stor"
)

// Extension is the hook contract. Lower Order runs first; ties keep
// registration order. Embed Base to override only the hooks you need.
type Extension interface {
	Name() string
	Order() int
	OnTap(e stor.Event) stor.Event
	OnDashboardStats(stats map[string]interface{})
}

// Base provides no-op hook defaults.
type Base struct{}

func (Base) OnTap(e stor.Event) stor.Event           { return e }
func (Base) OnDashboardStats(map[string]interface{}) {}

// Pipeline applies registered extensions in a fixed priority order.
type Pipeline struct {
	exts []Extension
}

// NewPipeline builds a pipeline from the given extensions.
func NewPipeline(exts ...Extension) *Pipeline {
	p := &Pipeline{}
	for _, x := range exts {
		p.Register(x)
	}
	return p
}

// Register adds an extension, keeping the pipeline sorted by Order.
func (p *Pipeline) Register(x Extension) {
	p.exts = append(p.exts, x)
	sort.SliceStable(p.exts, func(i, j int) bool {
		return p.exts[i].Order() < p.exts[j].Order()
	})
}

// Apply runs the pre-commit transformation chain on an event value.
func (p *Pipeline) Apply(e stor.Event) stor.Event {
	if p == nil {
		return e
	}
	for _, x := range p.exts {
		e = x.OnTap(e)
	}
	return e
}

// Decorate lets every extension add keys to the dashboard statistics.
func (p *Pipeline) Decorate(stats map[string]interface{}) {
	if p == nil {
		return
	}
	for _, x := range p.exts {
		x.OnDashboardStats(stats)
	}
}
