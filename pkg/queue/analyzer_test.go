// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flowstate/tap-station/pkg/conf"
	"github.com/flowstate/tap-station/pkg/stor"
)

// fixed clock shared by all tests, midday UTC so the day window is wide open
var testNow = time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)

const testSession = "gate-a"

func testTuning() conf.Queue {
	return conf.Queue{
		AvgWindow:       20,
		EstimateWindow:  10,
		PerHeadMinutes:  2,
		DefaultEstimate: 20,
		MaxPerHour:      12,
		ModerateQueue:   5,
		WarningQueue:    10,
		CriticalQueue:   20,
		ModerateWait:    30,
		WarningWait:     45,
		CriticalWait:    90,
	}
}

// newTestAnalyzer opens a private in-memory database named after the test
// and returns an analyzer with a frozen clock.
func newTestAnalyzer(t *testing.T, name string) *Analyzer {
	t.Helper()

	dsn := fmt.Sprintf("sqlite3://file:%s?mode=memory&cache=shared", name)
	st, err := stor.Init(dsn)
	if err != nil {
		t.Fatalf("Failed to init the store: %v", err)
	}

	cf := &conf.Config{
		DeviceID:  "station-1",
		Stage:     "QUEUE_JOIN",
		SessionID: testSession,
		Queue:     testTuning(),
	}
	a := NewAnalyzer(cf, st)
	a.Now = func() time.Time { return testNow }
	return a
}

// tap appends one event; each call gets a fresh uid so taps never collapse
// into one another through deduplication.
func tap(t *testing.T, a *Analyzer, tokenID, stage string, ts time.Time) {
	t.Helper()

	inserted, err := a.Store.Event().Append(&stor.Event{
		TokenID:   tokenID,
		UID:       uuid.New().String(),
		Stage:     stage,
		DeviceID:  "station-1",
		SessionID: testSession,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("Failed to append an event: %v", err)
	}
	if !inserted {
		t.Fatalf("Failed to seed, event for token %s was deduplicated", tokenID)
	}
}
