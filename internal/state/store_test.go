package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadMissingReturnsDefault(t *testing.T) {
	s := NewStore(t.TempDir())

	rec := s.Load("sess-1")
	if rec == nil {
		t.Fatal("expected a record, got nil")
	}
	if rec.SessionID != "sess-1" {
		t.Errorf("expected session id sess-1, got %s", rec.SessionID)
	}
	if rec.Confidence != 0 || rec.Risk != 0 || rec.Turn != 0 {
		t.Errorf("expected zeroed default record, got confidence=%d risk=%d turn=%d",
			rec.Confidence, rec.Risk, rec.Turn)
	}
}

func TestLoadCorruptReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	sessDir := filepath.Join(dir, SessionsDir)
	if err := os.MkdirAll(sessDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sessDir, "sess-1.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := s.Load("sess-1")
	if rec.Confidence != 0 || rec.Turn != 0 {
		t.Errorf("expected default record for corrupt file, got confidence=%d turn=%d",
			rec.Confidence, rec.Turn)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	rec := NewRecord("sess-rt")
	rec.Turn = 7
	rec.Confidence = 42
	rec.Risk = 40
	rec.TokenEstimate = 1234
	rec.NoteObservation("main.go")
	rec.NoteObservation("main.go")
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.Evidence = []EvidenceItem{
		{Turn: 1, Kind: "read", Target: "main.go", Delta: 10, Timestamp: ts},
		{Turn: 2, Kind: "search", Target: "go atomic rename", Delta: 20, Timestamp: ts},
	}
	rec.RiskEvents = []RiskEvent{
		{ID: "evt-1", Turn: 3, Delta: 20, Category: "recursive-root-delete", Reason: "rm -rf /", Timestamp: ts},
		{ID: "evt-2", Turn: 4, Delta: 20, Category: "pipe-to-shell", Reason: "curl | sh", Timestamp: ts},
	}

	if err := s.Save(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := s.Load("sess-rt")
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("round-trip mismatch:\n got  %+v\n want %+v", got, rec)
	}
}

func TestSaveRequiresSessionID(t *testing.T) {
	s := NewStore(t.TempDir())

	err := s.Save(&Record{})
	if !errors.Is(err, ErrSessionIDRequired) {
		t.Errorf("expected ErrSessionIDRequired, got %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	rec := NewRecord("sess-tmp")
	if err := s.Save(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, SessionsDir))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "sess-tmp.json" {
			t.Errorf("unexpected file in sessions dir: %s", e.Name())
		}
	}
}

func TestSaveWritesValidJSON(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	rec := NewRecord("sess-json")
	rec.Confidence = 10
	if err := s.Save(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, SessionsDir, "sess-json.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("persisted record is not valid JSON: %v", err)
	}
	if decoded["session_id"] != "sess-json" {
		t.Errorf("expected session_id sess-json, got %v", decoded["session_id"])
	}
}

func TestList(t *testing.T) {
	s := NewStore(t.TempDir())

	if ids, err := s.List(); err != nil || len(ids) != 0 {
		t.Errorf("expected empty list for fresh store, got %v (%v)", ids, err)
	}

	for _, id := range []string{"bbb", "aaa"} {
		if err := s.Save(NewRecord(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	ids, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"aaa", "bbb"}) {
		t.Errorf("expected sorted ids [aaa bbb], got %v", ids)
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"", "default"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"sess 01/a", "sess_01_a"},
		{"UUID-1234-abcd", "UUID-1234-abcd"},
	}
	for _, tt := range tests {
		if got := sanitizeID(tt.in); got != tt.want {
			t.Errorf("sanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{140, 100},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
