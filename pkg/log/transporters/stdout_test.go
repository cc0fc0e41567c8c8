package transporters

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"leaderdesk/pkg/log"
)

func TestStdout_WritesLineDelimitedJSON(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdoutWithWriter(&buf)

	entry := log.Entry{
		Timestamp: time.Now(),
		Level:     log.Info,
		Message:   "first",
		Fields:    map[string]any{"n": 1},
	}
	if err := s.Write(entry); err != nil {
		t.Fatalf("write: %v", err)
	}
	entry.Message = "second"
	if err := s.Write(entry); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for _, line := range lines {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Errorf("line is not valid JSON: %q", line)
		}
	}
}

func TestStdout_Name(t *testing.T) {
	if NewStdout().Name() != "stdout" {
		t.Error("name should be stdout")
	}
}

func TestStdout_CloseIsIdempotent(t *testing.T) {
	s := NewStdout()
	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
