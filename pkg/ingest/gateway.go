// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The ingest package validates, normalizes and batches externally submitted
// tap events into the event store, reporting a per-item outcome. A single
// malformed item never aborts the rest of its batch.
package ingest

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/flowstate/tap-station/pkg/ext"
	"github.com/flowstate/tap-station/pkg/stor"
	log "github.com/sirupsen/logrus"
)

// MaxBatchSize bounds a single ingestion call.
const MaxBatchSize = 1000

// Batch-level rejections; item-level faults are only counted.
var (
	ErrEmptyBatch    = errors.New("empty event list")
	ErrBatchTooLarge = errors.New("too many events (max 1000 per request)")
)

// Outcome is the tri-state result of one processed tap, consumed by the
// hardware feedback layer (buzzer/LED) among others.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeDuplicate
	OutcomeError
)

// Notifier receives the outcome of each processed tap.
type Notifier interface {
	Notify(Outcome)
}

// Summary aggregates the per-item outcomes of one batch.
type Summary struct {
	Received   int `json:"received"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// Gateway normalizes submitted records and appends them to the store,
// running the extension pipeline before each commit.
type Gateway struct {
	Store    stor.Store
	Pipeline *ext.Pipeline
	Notifier Notifier

	// Now supplies the ingestion time used as timestamp fallback.
	Now func() time.Time
}

// NewGateway returns a gateway bound to a store and an extension pipeline.
func NewGateway(st stor.Store, pl *ext.Pipeline) *Gateway {
	return &Gateway{Store: st, Pipeline: pl, Now: time.Now}
}

// IngestBatch processes a bounded batch of event-like records. Batches of
// zero items or of more than MaxBatchSize items are rejected outright; any
// other batch is fully processed and summarized, item failures included.
func (g *Gateway) IngestBatch(items []json.RawMessage) (*Summary, error) {

	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(items) > MaxBatchSize {
		log.Warnf("Payload too large: %d events", len(items))
		return nil, ErrBatchTooLarge
	}

	summary := &Summary{Received: len(items)}
	for _, raw := range items {
		outcome := g.processItem(raw)
		switch outcome {
		case OutcomeInserted:
			summary.Inserted++
		case OutcomeDuplicate:
			summary.Duplicates++
		default:
			summary.Errors++
		}
		if g.Notifier != nil {
			g.Notifier.Notify(outcome)
		}
	}

	log.Infof("Ingested %d events: +%d, =%d, !%d",
		summary.Received, summary.Inserted, summary.Duplicates, summary.Errors)
	return summary, nil
}

// processItem normalizes one record, runs the pre-commit pipeline and
// appends the result. Every failure path resolves to OutcomeError.
func (g *Gateway) processItem(raw json.RawMessage) Outcome {

	event, err := g.normalize(raw)
	if err != nil {
		log.Warnf("Failed to ingest event: %v", err)
		return OutcomeError
	}

	event = g.Pipeline.Apply(event)

	if err := event.Validate(); err != nil {
		log.Warnf("Invalid event after normalization: %v", err)
		return OutcomeError
	}

	inserted, err := g.Store.Event().Append(&event)
	if err != nil {
		log.Warnf("Failed to append event: %v", err)
		return OutcomeError
	}
	if inserted {
		return OutcomeInserted
	}
	return OutcomeDuplicate
}
