// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package queue

import (
	"time"

	"github.com/flowstate/tap-station/pkg/stor"
)

// Entry is one token currently waiting in the queue.
type Entry struct {
	Position int
	TokenID  string
	JoinedAt time.Time
}

// Membership returns the tokens currently in queue for a session: every token
// with a QUEUE_JOIN event and no EXIT event in that session. The set is
// recomputed from the log on each call as a set difference, so it self-heals
// when events arrive out of order or are replayed. A token appears at most
// once, with its earliest join defining position and wait time; ordering is
// ascending join time with event ID as tiebreaker.
func (a *Analyzer) Membership(sessionID string) ([]Entry, error) {

	joins, err := a.Store.Event().ListByStage(sessionID, stor.STAGE_QUEUE_JOIN)
	if err != nil {
		return nil, err
	}
	exits, err := a.Store.Event().ListByStage(sessionID, stor.STAGE_EXIT)
	if err != nil {
		return nil, err
	}

	exited := make(map[string]bool, len(*exits))
	for _, e := range *exits {
		exited[e.TokenID] = true
	}

	// joins are sorted by (timestamp, id), so the first occurrence of a token
	// is its earliest join, and first-seen order is the queue order
	entries := []Entry{}
	seen := make(map[string]bool, len(*joins))
	for _, e := range *joins {
		if exited[e.TokenID] || seen[e.TokenID] {
			continue
		}
		seen[e.TokenID] = true
		entries = append(entries, Entry{
			Position: len(entries) + 1,
			TokenID:  e.TokenID,
			JoinedAt: e.Timestamp,
		})
	}

	return entries, nil
}
