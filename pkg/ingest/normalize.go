// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package ingest

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/flowstate/tap-station/pkg/stor"
)

// Field length bounds enforced before storage.
const (
	maxTokenLen = 100
	maxUIDLen   = 100
	maxStageLen = 50
)

// normalize turns one submitted record into an event, tolerating both
// snake_case and camelCase field names and scalar values of any JSON type.
// Missing fields get defaults; an optional millisecond epoch timestamp is
// parsed with a silent fallback to ingestion time.
func (g *Gateway) normalize(raw json.RawMessage) (stor.Event, error) {

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return stor.Event{}, errors.New("event is not a structured record")
	}

	tokenID := pick(fields, "token_id", "tokenId")
	if tokenID == "" {
		tokenID = stor.STAGE_UNKNOWN
	}
	uid := pick(fields, "uid", "serial")
	if uid == "" {
		uid = tokenID
	}
	stage := strings.ToUpper(strings.TrimSpace(pick(fields, "stage")))
	if stage == "" {
		stage = stor.STAGE_UNKNOWN
	}
	sessionID := pick(fields, "session_id", "sessionId")
	if sessionID == "" {
		sessionID = stor.STAGE_UNKNOWN
	}
	deviceID := pick(fields, "device_id", "deviceId")
	if deviceID == "" {
		deviceID = "mobile"
	}

	if len(tokenID) > maxTokenLen || len(uid) > maxUIDLen || len(stage) > maxStageLen {
		return stor.Event{}, errors.New("field too long in event")
	}

	timestamp := g.Now().UTC()
	if ms, ok := pickMillis(fields, "timestamp_ms", "timestampMs"); ok {
		timestamp = time.UnixMilli(ms).UTC()
	}

	return stor.Event{
		TokenID:   tokenID,
		UID:       uid,
		Stage:     stage,
		DeviceID:  deviceID,
		SessionID: sessionID,
		Timestamp: timestamp,
	}, nil
}

// pick returns the first non-empty value among the given keys, stringified.
func pick(fields map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := stringify(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

// stringify renders a scalar JSON value the way a sender would have written
// it, so numeric token or device identifiers are accepted.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// pickMillis extracts a millisecond epoch timestamp; malformed values are
// reported as absent so the caller falls back to ingestion time.
func pickMillis(fields map[string]interface{}, keys ...string) (int64, bool) {
	for _, key := range keys {
		switch val := fields[key].(type) {
		case float64:
			if val > 0 {
				return int64(val), true
			}
		case string:
			if ms, err := strconv.ParseInt(val, 10, 64); err == nil && ms > 0 {
				return ms, true
			}
		}
	}
	return 0, false
}
