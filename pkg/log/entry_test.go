package log

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEntry_With(t *testing.T) {
	e := NewEntry(Info, "hello")
	e.With("key", "value", "count", 3)

	if e.Fields["key"] != "value" {
		t.Errorf("key = %v, want value", e.Fields["key"])
	}
	if e.Fields["count"] != 3 {
		t.Errorf("count = %v, want 3", e.Fields["count"])
	}
}

func TestEntry_With_OddArguments(t *testing.T) {
	e := NewEntry(Info, "hello")
	e.With("key", "value", "dangling")

	if len(e.Fields) != 1 {
		t.Errorf("fields = %v, dangling key should be dropped", e.Fields)
	}
}

func TestEntry_With_NonStringKey(t *testing.T) {
	e := NewEntry(Info, "hello")
	e.With(42, "value", "ok", true)

	if _, exists := e.Fields["42"]; exists {
		t.Error("non-string keys must not be coerced")
	}
	if e.Fields["ok"] != true {
		t.Error("pairs after a bad key should still land")
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	e := Entry{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Level:     Warn,
		Caller:    "handlers.go:42",
		RequestID: "req-1",
		Message:   "something odd",
		Fields:    map[string]any{"ip": "10.0.0.1"},
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["level"] != "WARN" {
		t.Errorf("level = %v", m["level"])
	}
	if m["msg"] != "something odd" {
		t.Errorf("msg = %v", m["msg"])
	}
	if m["request_id"] != "req-1" {
		t.Errorf("request_id = %v", m["request_id"])
	}
	if m["ip"] != "10.0.0.1" {
		t.Error("fields should be flattened into the root object")
	}
	if m["timestamp"] != "2025-03-01T12:00:00Z" {
		t.Errorf("timestamp = %v", m["timestamp"])
	}
}

func TestEntry_MarshalJSON_OmitsEmptyOptionals(t *testing.T) {
	data, err := json.Marshal(*NewEntry(Info, "plain"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, exists := m["caller"]; exists {
		t.Error("empty caller should be omitted")
	}
	if _, exists := m["request_id"]; exists {
		t.Error("empty request_id should be omitted")
	}
}
