// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package queue

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DashboardStats data model
type DashboardStats struct {
	TodayEvents          int `json:"today_events"`
	LastHourEvents       int `json:"last_hour_events"`
	InQueue              int `json:"in_queue"`
	CompletedToday       int `json:"completed_today"`
	AvgWaitMinutes       int `json:"avg_wait_minutes"`
	ThroughputPerHour    int `json:"throughput_per_hour"`
	LongestWaitCurrent   int `json:"longest_wait_current"`
	EstimatedWaitNew     int `json:"estimated_wait_new"`
	ServiceUptimeMinutes int `json:"service_uptime_minutes"`
	CapacityUtilization  int `json:"capacity_utilization"`
}

type OperationalView struct {
	Alerts      []Alert `json:"alerts"`
	QueueHealth string  `json:"queue_health"`
}

type QueueDetail struct {
	Position             int    `json:"position"`
	TokenID              string `json:"token_id"`
	QueueTime            string `json:"queue_time"`
	TimeInServiceMinutes int    `json:"time_in_service_minutes"`
}

type Completion struct {
	TokenID     string `json:"token_id"`
	ExitTime    string `json:"exit_time"`
	WaitMinutes int    `json:"wait_minutes"`
}

type HourlyActivity struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

type FeedEvent struct {
	TokenID    string `json:"token_id"`
	Stage      string `json:"stage"`
	StageLabel string `json:"stage_label"`
	Time       string `json:"time"`
	DeviceID   string `json:"device_id"`
}

// DashboardData is the full monitoring payload, assembled at query time.
// Extensions may add namespaced keys under "extensions".
type DashboardData struct {
	DeviceID          string                 `json:"device_id"`
	Stage             string                 `json:"stage"`
	SessionID         string                 `json:"session_id"`
	Timestamp         string                 `json:"timestamp"`
	Stats             DashboardStats         `json:"stats"`
	Operational       OperationalView        `json:"operational"`
	QueueDetails      []QueueDetail          `json:"queue_details"`
	RecentCompletions []Completion           `json:"recent_completions"`
	HourlyActivity    []HourlyActivity       `json:"hourly_activity"`
	RecentEvents      []FeedEvent            `json:"recent_events"`
	Extensions        map[string]interface{} `json:"extensions,omitempty"`
}

var stageTitler = cases.Title(language.English)

// stageLabel renders a canonical stage for human display, e.g.
// "QUEUE_JOIN" becomes "Queue Join".
func stageLabel(stage string) string {
	return stageTitler.String(strings.ReplaceAll(strings.ToLower(stage), "_", " "))
}

// Dashboard assembles the complete monitoring payload for a session.
func (a *Analyzer) Dashboard(sessionID string) (*DashboardData, error) {

	tuning := a.Tuning()
	now := a.Now().UTC()
	dayStart := now.Truncate(24 * time.Hour)
	hourAgo := now.Add(-time.Hour)

	events := a.Store.Event()

	todayCount, err := events.CountSince(sessionID, dayStart)
	if err != nil {
		return nil, err
	}
	lastHourCount, err := events.CountSince(sessionID, hourAgo)
	if err != nil {
		return nil, err
	}

	entries, err := a.Membership(sessionID)
	if err != nil {
		return nil, err
	}

	journeys, err := a.RecentJourneys(sessionID, 0)
	if err != nil {
		return nil, err
	}
	completedToday := 0
	for _, j := range journeys {
		if !j.ExitedAt.Before(dayStart) {
			completedToday++
		}
	}

	avgWait, err := a.AverageWait(sessionID, tuning.AvgWindow)
	if err != nil {
		return nil, err
	}

	operational, err := a.Operational(sessionID)
	if err != nil {
		return nil, err
	}

	queueDetails := make([]QueueDetail, 0, len(entries))
	for _, entry := range entries {
		queueDetails = append(queueDetails, QueueDetail{
			Position:             entry.Position,
			TokenID:              entry.TokenID,
			QueueTime:            entry.JoinedAt.Local().Format("15:04"),
			TimeInServiceMinutes: minutesBetween(entry.JoinedAt, now),
		})
	}

	completions := make([]Completion, 0, 10)
	for i, j := range journeys {
		if i == 10 {
			break
		}
		completions = append(completions, Completion{
			TokenID:     j.TokenID,
			ExitTime:    j.ExitedAt.Local().Format("15:04"),
			WaitMinutes: j.WaitMinutes(),
		})
	}

	hourly, err := a.hourlyActivity(sessionID, now, 12)
	if err != nil {
		return nil, err
	}

	recent, err := events.ListRecent(sessionID, 15)
	if err != nil {
		return nil, err
	}
	feed := make([]FeedEvent, 0, len(*recent))
	for _, e := range *recent {
		feed = append(feed, FeedEvent{
			TokenID:    e.TokenID,
			Stage:      e.Stage,
			StageLabel: stageLabel(e.Stage),
			Time:       e.Timestamp.Local().Format("15:04:05"),
			DeviceID:   e.DeviceID,
		})
	}

	// rough throughput estimate, half the raw event rate
	throughput := 0
	if lastHourCount > 0 {
		throughput = int(lastHourCount) / 2
	}

	return &DashboardData{
		DeviceID:  a.Config.DeviceID,
		Stage:     a.Config.Stage,
		SessionID: sessionID,
		Timestamp: now.Format(time.RFC3339),
		Stats: DashboardStats{
			TodayEvents:          int(todayCount),
			LastHourEvents:       int(lastHourCount),
			InQueue:              len(entries),
			CompletedToday:       completedToday,
			AvgWaitMinutes:       avgWait,
			ThroughputPerHour:    throughput,
			LongestWaitCurrent:   operational.LongestWaitCurrent,
			EstimatedWaitNew:     operational.EstimatedWaitNew,
			ServiceUptimeMinutes: operational.ServiceUptimeMinutes,
			CapacityUtilization:  operational.CapacityUtilization,
		},
		Operational: OperationalView{
			Alerts:      operational.Alerts,
			QueueHealth: operational.QueueHealth,
		},
		QueueDetails:      queueDetails,
		RecentCompletions: completions,
		HourlyActivity:    hourly,
		RecentEvents:      feed,
	}, nil
}

// hourlyActivity buckets the session's events of the last hours by UTC hour,
// grouped in Go the same way across all database dialects.
func (a *Analyzer) hourlyActivity(sessionID string, now time.Time, hours int) ([]HourlyActivity, error) {

	events, err := a.Store.Event().ListSince(sessionID, now.Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range *events {
		counts[e.Timestamp.UTC().Format("15:00")]++
	}

	hourKeys := make([]string, 0, len(counts))
	for hour := range counts {
		hourKeys = append(hourKeys, hour)
	}
	sort.Strings(hourKeys)

	activity := make([]HourlyActivity, 0, len(hourKeys))
	for _, hour := range hourKeys {
		activity = append(activity, HourlyActivity{Hour: hour, Count: counts[hour]})
	}
	return activity, nil
}
