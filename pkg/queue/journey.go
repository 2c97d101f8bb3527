// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package queue

import (
	"sort"
	"time"

	"github.com/flowstate/tap-station/pkg/stor"
)

// Journey is the derived pairing of a queue join and its exit for one token.
// Journeys are never stored; they are recomputed from the log on each query.
type Journey struct {
	TokenID  string
	JoinedAt time.Time
	ExitedAt time.Time
	exitID   uint
}

// WaitMinutes is the journey duration in whole minutes, truncating.
func (j Journey) WaitMinutes() int {
	return minutesBetween(j.JoinedAt, j.ExitedAt)
}

// RecentJourneys returns the limit most recent completed journeys of a
// session, most recent exit first. A limit of 0 returns all of them.
//
// Pairing rule: per token, events are scanned in (timestamp, id) order and an
// EXIT completes the earliest pending un-exited QUEUE_JOIN. Repeated joins
// without an intervening exit are an anomaly tolerated by keeping the
// earliest join; an exit with no pending join is ignored.
func (a *Analyzer) RecentJourneys(sessionID string, limit int) ([]Journey, error) {

	joins, err := a.Store.Event().ListByStage(sessionID, stor.STAGE_QUEUE_JOIN)
	if err != nil {
		return nil, err
	}
	exits, err := a.Store.Event().ListByStage(sessionID, stor.STAGE_EXIT)
	if err != nil {
		return nil, err
	}

	// merge both stage streams per token, keeping (timestamp, id) order
	perToken := make(map[string][]stor.Event)
	for _, e := range *joins {
		perToken[e.TokenID] = append(perToken[e.TokenID], e)
	}
	for _, e := range *exits {
		perToken[e.TokenID] = append(perToken[e.TokenID], e)
	}

	journeys := []Journey{}
	for token, events := range perToken {
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Timestamp.Equal(events[j].Timestamp) {
				return events[i].ID < events[j].ID
			}
			return events[i].Timestamp.Before(events[j].Timestamp)
		})

		var pending *stor.Event
		for i := range events {
			e := &events[i]
			switch e.Stage {
			case stor.STAGE_QUEUE_JOIN:
				if pending == nil {
					pending = e
				}
			case stor.STAGE_EXIT:
				if pending != nil {
					journeys = append(journeys, Journey{
						TokenID:  token,
						JoinedAt: pending.Timestamp,
						ExitedAt: e.Timestamp,
						exitID:   e.ID,
					})
					pending = nil
				}
			}
		}
	}

	sort.Slice(journeys, func(i, j int) bool {
		if journeys[i].ExitedAt.Equal(journeys[j].ExitedAt) {
			return journeys[i].exitID > journeys[j].exitID
		}
		return journeys[i].ExitedAt.After(journeys[j].ExitedAt)
	})

	if limit > 0 && len(journeys) > limit {
		journeys = journeys[:limit]
	}
	return journeys, nil
}

// AverageWait returns the truncated integer mean wait over the limit most
// recent completed journeys, or 0 when no journey has completed yet.
func (a *Analyzer) AverageWait(sessionID string, limit int) (int, error) {

	journeys, err := a.RecentJourneys(sessionID, limit)
	if err != nil {
		return 0, err
	}
	if len(journeys) == 0 {
		return 0, nil
	}

	total := 0
	for _, j := range journeys {
		total += j.WaitMinutes()
	}
	return total / len(journeys), nil
}

// EstimatedWait returns the wait estimate presented to a new arrival:
// the recent average plus a fixed per-head increment for everyone already in
// queue. Before any journey completes, a configured default is returned so
// the estimate is not misleadingly optimistic.
func (a *Analyzer) EstimatedWait(sessionID string) (int, error) {

	tuning := a.Tuning()

	avg, err := a.AverageWait(sessionID, tuning.EstimateWindow)
	if err != nil {
		return 0, err
	}
	if avg <= 0 {
		return tuning.DefaultEstimate, nil
	}

	entries, err := a.Membership(sessionID)
	if err != nil {
		return 0, err
	}
	return avg + len(entries)*tuning.PerHeadMinutes, nil
}
