// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package queue

import (
	"fmt"
	"math"
	"time"
)

// Queue health labels, from least to most severe.
const (
	HEALTH_GOOD     = "good"
	HEALTH_MODERATE = "moderate"
	HEALTH_WARNING  = "warning"
	HEALTH_CRITICAL = "critical"
)

// Alert severity levels.
const (
	ALERT_INFO     = "info"
	ALERT_WARNING  = "warning"
	ALERT_CRITICAL = "critical"
)

// Alert is one independent operational finding. A session may carry several
// at once; severities do not suppress one another.
type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Operational holds the live metrics and alerts of a session.
type Operational struct {
	LongestWaitCurrent   int     `json:"longest_wait_current"`
	EstimatedWaitNew     int     `json:"estimated_wait_new"`
	ServiceUptimeMinutes int     `json:"service_uptime_minutes"`
	CapacityUtilization  int     `json:"capacity_utilization"`
	Alerts               []Alert `json:"alerts"`
	QueueHealth          string  `json:"queue_health"`
}

// Operational derives the live metrics of a session at query time.
func (a *Analyzer) Operational(sessionID string) (*Operational, error) {

	tuning := a.Tuning()
	now := a.Now().UTC()

	entries, err := a.Membership(sessionID)
	if err != nil {
		return nil, err
	}
	queueLen := len(entries)

	// age of the earliest still-open join; membership is sorted, so it leads
	longestWait := 0
	if queueLen > 0 {
		longestWait = minutesBetween(entries[0].JoinedAt, now)
	}

	estimate, err := a.EstimatedWait(sessionID)
	if err != nil {
		return nil, err
	}

	// minutes since the first event of the current UTC day
	uptime := 0
	dayStart := now.Truncate(24 * time.Hour)
	first, err := a.Store.Event().FirstSince(sessionID, dayStart)
	if err != nil {
		return nil, err
	}
	if first != nil {
		uptime = minutesBetween(first.Timestamp, now)
	}

	// completions in the last hour against the rated throughput
	journeys, err := a.RecentJourneys(sessionID, 0)
	if err != nil {
		return nil, err
	}
	hourAgo := now.Add(-time.Hour)
	completedLastHour := 0
	for _, j := range journeys {
		if j.ExitedAt.After(hourAgo) {
			completedLastHour++
		}
	}
	utilization := 0
	if tuning.MaxPerHour > 0 {
		utilization = int(math.Round(float64(completedLastHour) / float64(tuning.MaxPerHour) * 100))
		if utilization > 100 {
			utilization = 100
		}
	}

	alerts := []Alert{}
	if queueLen > tuning.WarningQueue {
		alerts = append(alerts, Alert{ALERT_WARNING, fmt.Sprintf("Queue is long (%d people)", queueLen)})
	}
	if queueLen > tuning.CriticalQueue {
		alerts = append(alerts, Alert{ALERT_CRITICAL, fmt.Sprintf("Queue critical (%d people) - consider additional resources", queueLen)})
	}
	if longestWait > tuning.WarningWait {
		alerts = append(alerts, Alert{ALERT_WARNING, fmt.Sprintf("Longest wait: %d min", longestWait)})
	}
	if longestWait > tuning.CriticalWait {
		alerts = append(alerts, Alert{ALERT_CRITICAL, fmt.Sprintf("Critical wait time: %d min", longestWait)})
	}
	if utilization > 90 {
		alerts = append(alerts, Alert{ALERT_INFO, "Operating near capacity"})
	}

	// health collapses to a single label, most severe condition first
	var health string
	switch {
	case queueLen > tuning.CriticalQueue || longestWait > tuning.CriticalWait:
		health = HEALTH_CRITICAL
	case queueLen > tuning.WarningQueue || longestWait > tuning.WarningWait:
		health = HEALTH_WARNING
	case queueLen > tuning.ModerateQueue || longestWait > tuning.ModerateWait:
		health = HEALTH_MODERATE
	default:
		health = HEALTH_GOOD
	}

	return &Operational{
		LongestWaitCurrent:   longestWait,
		EstimatedWaitNew:     estimate,
		ServiceUptimeMinutes: uptime,
		CapacityUtilization:  utilization,
		Alerts:               alerts,
		QueueHealth:          health,
	}, nil
}
