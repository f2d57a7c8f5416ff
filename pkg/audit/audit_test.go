package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEventNew(t *testing.T) {
	event := NewEvent("sess-1", "DEADBEEF", "set-property")

	if event.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", event.SessionID, "sess-1")
	}
	if event.EntityUID != "DEADBEEF" {
		t.Errorf("EntityUID = %q, want %q", event.EntityUID, "DEADBEEF")
	}
	if event.Operation != "set-property" {
		t.Errorf("Operation = %q, want %q", event.Operation, "set-property")
	}
	if event.ID == "" {
		t.Error("ID should not be empty")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestEventChaining(t *testing.T) {
	changes := []PropertyChange{
		{Path: "name", Type: ChangeModify, OldValue: "old", NewValue: "new"},
	}

	event := NewEvent("sess-1", "DEADBEEF", "set-property").
		WithChanges(changes).
		WithSuccess().
		WithDuration(time.Second)

	if len(event.Changes) != 1 {
		t.Errorf("expected 1 change, got %d", len(event.Changes))
	}
	if !event.Success {
		t.Error("Success should be true")
	}
	if event.Duration != time.Second {
		t.Errorf("Duration = %v", event.Duration)
	}
}

func TestEventWithError(t *testing.T) {
	event := NewEvent("sess-1", "DEADBEEF", "call-scene").
		WithError(errors.New("scene not found"))

	if event.Success {
		t.Error("Success should be false")
	}
	if event.Error != "scene not found" {
		t.Errorf("Error = %q", event.Error)
	}

	event2 := NewEvent("sess-1", "DEADBEEF", "call-scene").WithError(nil)
	if event2.Error != "" {
		t.Errorf("expected empty error message for nil error, got %q", event2.Error)
	}
}

func newTestLogger(t *testing.T) (*FileLogger, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	logger, err := NewFileLogger(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, path
}

func TestFileLoggerLogAndQuery(t *testing.T) {
	logger, _ := newTestLogger(t)

	e1 := NewEvent("sess-1", "DEADBEEF", "set-property").WithSuccess()
	e2 := NewEvent("sess-1", "CAFEBABE", "call-scene").WithError(errors.New("boom"))
	if err := logger.Log(e1); err != nil {
		t.Fatalf("Log e1: %v", err)
	}
	if err := logger.Log(e2); err != nil {
		t.Fatalf("Log e2: %v", err)
	}

	all, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
}

func TestFileLoggerQueryFiltersByEntityAndSuccess(t *testing.T) {
	logger, _ := newTestLogger(t)

	logger.Log(NewEvent("sess-1", "DEADBEEF", "set-property").WithSuccess())
	logger.Log(NewEvent("sess-1", "DEADBEEF", "call-scene").WithError(errors.New("boom")))
	logger.Log(NewEvent("sess-1", "CAFEBABE", "set-property").WithSuccess())

	byEntity, err := logger.Query(Filter{EntityUID: "DEADBEEF"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(byEntity) != 2 {
		t.Fatalf("expected 2 events for DEADBEEF, got %d", len(byEntity))
	}

	failuresOnly, err := logger.Query(Filter{FailureOnly: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(failuresOnly) != 1 {
		t.Fatalf("expected 1 failed event, got %d", len(failuresOnly))
	}
}

func TestFileLoggerQueryAppliesLimitAndOffset(t *testing.T) {
	logger, _ := newTestLogger(t)
	for i := 0; i < 5; i++ {
		logger.Log(NewEvent("sess-1", "DEADBEEF", "set-property").WithSuccess())
	}

	page, err := logger.Query(Filter{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 events in page, got %d", len(page))
	}
}

func TestFileLoggerQueryOnMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFileLogger(filepath.Join(dir, "audit.jsonl"), RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer logger.Close()
	os.Remove(filepath.Join(dir, "audit.jsonl"))

	events, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query on missing file: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestFileLoggerRotatesOnMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	logger, err := NewFileLogger(path, RotationConfig{MaxSize: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer logger.Close()

	for i := 0; i < 3; i++ {
		if err := logger.Log(NewEvent("sess-1", "DEADBEEF", "set-property").WithSuccess()); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	matches, _ := filepath.Glob(path + ".*")
	if len(matches) == 0 {
		t.Fatalf("expected at least one rotated backup file")
	}
}

func TestDefaultLoggerNoOpWithoutConfiguration(t *testing.T) {
	defaultLogger.Store(loggerHolder{})
	if err := Log(NewEvent("s", "u", "op")); err != nil {
		t.Fatalf("Log with no default logger should be a no-op, got %v", err)
	}
	events, err := Query(Filter{})
	if err != nil || len(events) != 0 {
		t.Fatalf("Query with no default logger should return empty, got %v, %v", events, err)
	}
}

func TestSetDefaultLoggerRoutesThrough(t *testing.T) {
	logger, _ := newTestLogger(t)
	SetDefaultLogger(logger)
	defer SetDefaultLogger(nil)

	if err := Log(NewEvent("sess-1", "DEADBEEF", "set-property").WithSuccess()); err != nil {
		t.Fatalf("Log: %v", err)
	}
	events, err := Query(Filter{EntityUID: "DEADBEEF"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event via default logger, got %d", len(events))
	}
}
