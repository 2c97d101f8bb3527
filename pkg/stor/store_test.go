package stor

import (
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/google/uuid"
	"syreclabs.com/go/faker"
)

// some global vars shared by all tests
var St Store

// base instant for deterministic timestamps
var base = time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {

	// create / open an sqlite db in memory
	dsn := "sqlite3://file:stortest?mode=memory&cache=shared"
	var err error
	St, err = Init(dsn)
	if err != nil {
		log.Fatalf("Failed to init the store: %v", err)
	}

	code := m.Run()
	os.Exit(code)
}

// newEvent returns a valid event for a session, with faker-generated identifiers
func newEvent(sessionID, stage string, ts time.Time) *Event {
	tokenID := faker.Number().Number(3)
	return &Event{
		TokenID:   tokenID,
		UID:       faker.Lorem().Characters(8),
		Stage:     stage,
		DeviceID:  "station-1",
		SessionID: sessionID,
		Timestamp: ts,
	}
}

// TestAppendIdempotent checks that a repeated logical tap never creates a second row
func TestAppendIdempotent(t *testing.T) {
	sessionID := uuid.New().String()

	e := &Event{
		TokenID:   "001",
		UID:       "04AABBCC",
		Stage:     STAGE_QUEUE_JOIN,
		DeviceID:  "station-1",
		SessionID: sessionID,
		Timestamp: base,
	}

	inserted, err := St.Event().Append(e)
	if err != nil {
		t.Fatalf("Failed to append an event: %v", err)
	}
	if !inserted {
		t.Fatal("Expected the first append to insert")
	}

	// repeat the same logical tap several times
	for i := 0; i < 3; i++ {
		repeat := &Event{
			TokenID:   "001",
			UID:       "04AABBCC",
			Stage:     STAGE_QUEUE_JOIN,
			DeviceID:  "station-1",
			SessionID: sessionID,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		inserted, err = St.Event().Append(repeat)
		if err != nil {
			t.Fatalf("Failed to append a repeated event: %v", err)
		}
		if inserted {
			t.Fatal("Expected the repeated append to report a duplicate")
		}
	}

	count, err := St.Event().Count(sessionID)
	if err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("Failed to dedup, expected 1 event got %d", count)
	}

	// the same tap at another reader is a distinct logical event
	other := &Event{
		TokenID:   "001",
		UID:       "04AABBCC",
		Stage:     STAGE_QUEUE_JOIN,
		DeviceID:  "station-2",
		SessionID: sessionID,
		Timestamp: base,
	}
	inserted, err = St.Event().Append(other)
	if err != nil {
		t.Fatalf("Failed to append an event from another device: %v", err)
	}
	if !inserted {
		t.Fatal("Expected the other-device append to insert")
	}
}

// TestRangeReads checks the session-scoped read operations
func TestRangeReads(t *testing.T) {
	sessionID := uuid.New().String()

	// seed: three joins, one exit, one opaque stage
	stages := []string{STAGE_QUEUE_JOIN, STAGE_QUEUE_JOIN, STAGE_QUEUE_JOIN, STAGE_EXIT, "INFO_DESK"}
	for i, stage := range stages {
		e := newEvent(sessionID, stage, base.Add(time.Duration(i)*time.Minute))
		if _, err := St.Event().Append(e); err != nil {
			t.Fatalf("Failed to seed an event: %v", err)
		}
	}

	count, err := St.Event().Count(sessionID)
	if err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	if count != 5 {
		t.Fatalf("Failed to count, expected 5 got %d", count)
	}

	// a different session sees none of them
	count, err = St.Event().Count(uuid.New().String())
	if err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected an empty foreign session, got %d events", count)
	}

	// recency read, most recent first
	recent, err := St.Event().ListRecent(sessionID, 2)
	if err != nil {
		t.Fatalf("Failed to list recent events: %v", err)
	}
	if len(*recent) != 2 {
		t.Fatalf("Expected 2 recent events, got %d", len(*recent))
	}
	if (*recent)[0].Stage != "INFO_DESK" {
		t.Fatalf("Expected the most recent event first, got stage %s", (*recent)[0].Stage)
	}

	// stage filter, chronological order
	joins, err := St.Event().ListByStage(sessionID, STAGE_QUEUE_JOIN)
	if err != nil {
		t.Fatalf("Failed to list events by stage: %v", err)
	}
	if len(*joins) != 3 {
		t.Fatalf("Expected 3 queue joins, got %d", len(*joins))
	}
	if !(*joins)[0].Timestamp.Before((*joins)[2].Timestamp) {
		t.Fatal("Expected queue joins in chronological order")
	}

	// recency threshold
	sinceCount, err := St.Event().CountSince(sessionID, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("Failed to count recent events: %v", err)
	}
	if sinceCount != 3 {
		t.Fatalf("Expected 3 events after the threshold, got %d", sinceCount)
	}

	// earliest event lookup
	first, err := St.Event().FirstSince(sessionID, base)
	if err != nil {
		t.Fatalf("Failed to get the first event: %v", err)
	}
	if first == nil || !first.Timestamp.Equal(base) {
		t.Fatal("Expected the earliest seeded event")
	}

	// no event yet is a nil result, not an error
	first, err = St.Event().FirstSince(sessionID, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("FirstSince failed on an empty window: %v", err)
	}
	if first != nil {
		t.Fatal("Expected no event after the last seeded timestamp")
	}
}

// TestListByToken checks the per-token history read
func TestListByToken(t *testing.T) {
	sessionID := uuid.New().String()

	e1 := &Event{TokenID: "042", UID: "A1", Stage: STAGE_QUEUE_JOIN, DeviceID: "station-1", SessionID: sessionID, Timestamp: base}
	e2 := &Event{TokenID: "042", UID: "A1", Stage: STAGE_EXIT, DeviceID: "station-1", SessionID: sessionID, Timestamp: base.Add(30 * time.Minute)}
	e3 := &Event{TokenID: "043", UID: "B1", Stage: STAGE_QUEUE_JOIN, DeviceID: "station-1", SessionID: sessionID, Timestamp: base}
	for _, e := range []*Event{e1, e2, e3} {
		if _, err := St.Event().Append(e); err != nil {
			t.Fatalf("Failed to seed an event: %v", err)
		}
	}

	events, err := St.Event().ListByToken(sessionID, "042")
	if err != nil {
		t.Fatalf("Failed to list events by token: %v", err)
	}
	if len(*events) != 2 {
		t.Fatalf("Expected 2 events for the token, got %d", len(*events))
	}
	if (*events)[0].Stage != STAGE_QUEUE_JOIN || (*events)[1].Stage != STAGE_EXIT {
		t.Fatal("Expected the token history in chronological order")
	}
}

// TestEventValidation checks the length bounds of stored events
func TestEventValidation(t *testing.T) {
	e := &Event{
		TokenID:   "001",
		UID:       "04AABBCC",
		Stage:     faker.Lorem().Characters(51),
		DeviceID:  "station-1",
		SessionID: "session",
		Timestamp: base,
	}
	if err := e.Validate(); err == nil {
		t.Fatal("Expected an oversized stage to be rejected")
	}

	e.Stage = STAGE_QUEUE_JOIN
	if err := e.Validate(); err != nil {
		t.Fatalf("Expected a valid event, got: %v", err)
	}

	e.TokenID = ""
	if err := e.Validate(); err == nil {
		t.Fatal("Expected a missing token to be rejected")
	}
}
