// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event data model
// we don't include the full gorm model here, as no update nor soft deletion occurs on events
type Event struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	TokenID   string    `json:"token_id" validate:"required,max=100" gorm:"type:varchar(100);index:idx_events_session_token,priority:2"`
	UID       string    `json:"uid" validate:"required,max=100" gorm:"type:varchar(100);uniqueIndex:idx_events_dedup,priority:1"`
	Stage     string    `json:"stage" validate:"required,max=50" gorm:"type:varchar(50);uniqueIndex:idx_events_dedup,priority:2;index:idx_events_session_stage,priority:2"`
	DeviceID  string    `json:"device_id" gorm:"type:varchar(100);uniqueIndex:idx_events_dedup,priority:4"`
	SessionID string    `json:"session_id" gorm:"type:varchar(100);uniqueIndex:idx_events_dedup,priority:3;index:idx_events_session_stage,priority:1;index:idx_events_session_token,priority:1"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

// Validate checks required fields and length bounds
func (e *Event) Validate() error {

	validate := validator.New()
	return validate.Struct(e)
}

// Append inserts an event into the log; the operation is idempotent on
// (uid, stage, session_id, device_id), which is enforced by a database
// unique constraint so that two concurrent submissions of the same logical
// tap cannot both report an insert. The returned flag tells whether the row
// is new or a duplicate of an existing one.
func (s *eventStore) Append(e *Event) (bool, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	result := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "uid"}, {Name: "stage"}, {Name: "session_id"}, {Name: "device_id"},
		},
		DoNothing: true,
	}).Create(e)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *eventStore) Count(sessionID string) (int64, error) {
	var count int64
	return count, s.db.Model(Event{}).Where("session_id = ?", sessionID).Count(&count).Error
}

func (s *eventStore) CountSince(sessionID string, t time.Time) (int64, error) {
	var count int64
	return count, s.db.Model(Event{}).Where("session_id = ? AND timestamp > ?", sessionID, t).Count(&count).Error
}

func (s *eventStore) Get(id uint) (*Event, error) {
	var event Event
	return &event, s.db.Where("id = ?", id).First(&event).Error
}

func (s *eventStore) ListRecent(sessionID string, limit int) (*[]Event, error) {
	events := []Event{}
	return &events, s.db.Limit(limit).Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC").Find(&events).Error
}

func (s *eventStore) ListByToken(sessionID, tokenID string) (*[]Event, error) {
	events := []Event{}
	// security: limited to 500 results
	return &events, s.db.Limit(500).Where("session_id = ? AND token_id = ?", sessionID, tokenID).
		Order("timestamp ASC, id ASC").Find(&events).Error
}

func (s *eventStore) ListByStage(sessionID, stage string) (*[]Event, error) {
	events := []Event{}
	return &events, s.db.Where("session_id = ? AND stage = ?", sessionID, stage).
		Order("timestamp ASC, id ASC").Find(&events).Error
}

func (s *eventStore) ListSince(sessionID string, t time.Time) (*[]Event, error) {
	events := []Event{}
	return &events, s.db.Where("session_id = ? AND timestamp > ?", sessionID, t).
		Order("timestamp ASC, id ASC").Find(&events).Error
}

// FirstSince returns the earliest event at or after t, or nil when the
// session has no such event.
func (s *eventStore) FirstSince(sessionID string, t time.Time) (*Event, error) {
	var event Event
	err := s.db.Where("session_id = ? AND timestamp >= ?", sessionID, t).
		Order("timestamp ASC, id ASC").First(&event).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
