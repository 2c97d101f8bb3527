// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package queue

import (
	"time"

	"github.com/flowstate/tap-station/pkg/stor"
	"github.com/jtacoma/uritemplates"
	log "github.com/sirupsen/logrus"
)

// Participant status values.
const (
	STATUS_NOT_CHECKED_IN = "not_checked_in"
	STATUS_IN_QUEUE       = "in_queue"
	STATUS_COMPLETE       = "complete"
)

// TokenStatus is the per-participant view returned by the status lookup.
type TokenStatus struct {
	TokenID         string     `json:"token_id"`
	SessionID       string     `json:"session_id"`
	Status          string     `json:"status"`
	QueueJoin       *time.Time `json:"queue_join,omitempty"`
	QueueJoinTime   string     `json:"queue_join_time,omitempty"`
	Exit            *time.Time `json:"exit,omitempty"`
	ExitTime        string     `json:"exit_time,omitempty"`
	WaitTimeMinutes *int       `json:"wait_time_minutes,omitempty"`
	EstimatedWait   int        `json:"estimated_wait"`
	CheckLink       string     `json:"check_link,omitempty"`
}

// TokenStatus derives the current status of one token from its event history.
// A token with no events is reported as not checked in, with an estimate;
// that is a normal zero-valued result, not an error.
func (a *Analyzer) TokenStatus(sessionID, tokenID string) (*TokenStatus, error) {

	events, err := a.Store.Event().ListByToken(sessionID, tokenID)
	if err != nil {
		return nil, err
	}

	estimate, err := a.EstimatedWait(sessionID)
	if err != nil {
		return nil, err
	}

	status := &TokenStatus{
		TokenID:       tokenID,
		SessionID:     sessionID,
		Status:        STATUS_NOT_CHECKED_IN,
		EstimatedWait: estimate,
		CheckLink:     a.checkLink(tokenID),
	}

	// the latest occurrence of each load-bearing stage wins for display
	for i := range *events {
		e := &(*events)[i]
		switch e.Stage {
		case stor.STAGE_QUEUE_JOIN:
			t := e.Timestamp
			status.QueueJoin = &t
			status.QueueJoinTime = formatClock(t)
			status.Status = STATUS_IN_QUEUE
		case stor.STAGE_EXIT:
			t := e.Timestamp
			status.Exit = &t
			status.ExitTime = formatClock(t)
			status.Status = STATUS_COMPLETE
		}
	}

	if status.QueueJoin != nil && status.Exit != nil {
		wait := minutesBetween(*status.QueueJoin, *status.Exit)
		status.WaitTimeMinutes = &wait
	}

	return status, nil
}

// checkLink expands the configured status-check URI template for a token.
func (a *Analyzer) checkLink(tokenID string) string {
	if a.Config.Status.CheckLink == "" {
		return ""
	}
	template, err := uritemplates.Parse(a.Config.Status.CheckLink)
	if err != nil {
		log.Warnf("invalid status check link template: %v", err)
		return ""
	}
	link, err := template.Expand(map[string]interface{}{"token_id": tokenID})
	if err != nil {
		log.Warnf("failed to expand status check link: %v", err)
		return ""
	}
	return link
}

// formatClock renders a timestamp as a local wall-clock string, e.g. "02:15 PM".
func formatClock(t time.Time) string {
	return t.Local().Format("03:04 PM")
}
