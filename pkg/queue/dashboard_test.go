// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package queue

import (
	"testing"
	"time"

	"github.com/flowstate/tap-station/pkg/stor"
)

func TestStageLabel(t *testing.T) {
	cases := map[string]string{
		"QUEUE_JOIN": "Queue Join",
		"EXIT":       "Exit",
		"info_desk":  "Info Desk",
	}
	for stage, want := range cases {
		if got := stageLabel(stage); got != want {
			t.Fatalf("Expected %q for stage %s, got %q", want, stage, got)
		}
	}
}

func TestDashboard(t *testing.T) {
	a := newTestAnalyzer(t, "dashboard")

	// two completed journeys and one token still waiting
	tap(t, a, "001", stor.STAGE_QUEUE_JOIN, testNow.Add(-90*time.Minute))
	tap(t, a, "001", stor.STAGE_EXIT, testNow.Add(-70*time.Minute))
	tap(t, a, "002", stor.STAGE_QUEUE_JOIN, testNow.Add(-40*time.Minute))
	tap(t, a, "002", stor.STAGE_EXIT, testNow.Add(-30*time.Minute))
	tap(t, a, "003", stor.STAGE_QUEUE_JOIN, testNow.Add(-12*time.Minute))

	data, err := a.Dashboard(testSession)
	if err != nil {
		t.Fatalf("Failed to assemble the dashboard: %v", err)
	}

	if data.SessionID != testSession {
		t.Fatalf("Expected session %s, got %s", testSession, data.SessionID)
	}
	if data.Stats.TodayEvents != 5 {
		t.Fatalf("Expected 5 events today, got %d", data.Stats.TodayEvents)
	}
	// the three events since 11:00 fall in the last hour
	if data.Stats.LastHourEvents != 3 {
		t.Fatalf("Expected 3 events in the last hour, got %d", data.Stats.LastHourEvents)
	}
	if data.Stats.ThroughputPerHour != 1 {
		t.Fatalf("Expected a throughput of 1, got %d", data.Stats.ThroughputPerHour)
	}
	if data.Stats.InQueue != 1 {
		t.Fatalf("Expected 1 token in queue, got %d", data.Stats.InQueue)
	}
	if data.Stats.CompletedToday != 2 {
		t.Fatalf("Expected 2 completions today, got %d", data.Stats.CompletedToday)
	}
	// waits of 20 and 10 minutes
	if data.Stats.AvgWaitMinutes != 15 {
		t.Fatalf("Expected a 15 minute average wait, got %d", data.Stats.AvgWaitMinutes)
	}
	if data.Stats.LongestWaitCurrent != 12 {
		t.Fatalf("Expected a 12 minute longest wait, got %d", data.Stats.LongestWaitCurrent)
	}
	// avg 15 plus one waiting token at 2 minutes per head
	if data.Stats.EstimatedWaitNew != 17 {
		t.Fatalf("Expected an estimate of 17, got %d", data.Stats.EstimatedWaitNew)
	}

	if len(data.QueueDetails) != 1 || data.QueueDetails[0].TokenID != "003" {
		t.Fatalf("Expected token 003 in the queue details, got %v", data.QueueDetails)
	}
	if data.QueueDetails[0].TimeInServiceMinutes != 12 {
		t.Fatalf("Expected 12 minutes in service, got %d", data.QueueDetails[0].TimeInServiceMinutes)
	}

	if len(data.RecentCompletions) != 2 || data.RecentCompletions[0].TokenID != "002" {
		t.Fatalf("Expected the latest completion first, got %v", data.RecentCompletions)
	}
	if data.RecentCompletions[0].WaitMinutes != 10 {
		t.Fatalf("Expected a 10 minute completion, got %d", data.RecentCompletions[0].WaitMinutes)
	}

	if len(data.RecentEvents) != 5 {
		t.Fatalf("Expected a 5 event feed, got %d", len(data.RecentEvents))
	}
	if data.RecentEvents[0].TokenID != "003" {
		t.Fatalf("Expected the latest event first in the feed, got %s", data.RecentEvents[0].TokenID)
	}
	if data.RecentEvents[0].StageLabel != "Queue Join" {
		t.Fatalf("Expected a titled stage label, got %s", data.RecentEvents[0].StageLabel)
	}

	// events span two UTC hours: 10:30-10:50 and 11:20, 11:30, 11:48
	if len(data.HourlyActivity) != 2 {
		t.Fatalf("Expected 2 hourly buckets, got %d", len(data.HourlyActivity))
	}
	if data.HourlyActivity[0].Hour != "10:00" || data.HourlyActivity[0].Count != 2 {
		t.Fatalf("Unexpected first hourly bucket: %v", data.HourlyActivity[0])
	}
	if data.HourlyActivity[1].Hour != "11:00" || data.HourlyActivity[1].Count != 3 {
		t.Fatalf("Unexpected second hourly bucket: %v", data.HourlyActivity[1])
	}
}
