package tracer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/reasoncore/internal/ports"
)

func TestNoopProgressSink_NeverPanics(t *testing.T) {
	NoopProgressSink{}.EmitProgress(ports.ProgressEvent{Stage: "analyst"})
}

func TestLoggingProgressSink_EmitProgress_WritesLogLine(t *testing.T) {
	var buf []byte
	w := &sliceWriter{buf: &buf}
	log := zerolog.New(w)

	s := LoggingProgressSink{Log: log}
	s.EmitProgress(ports.ProgressEvent{
		MessageType:     "stage_update",
		Stage:           "critic",
		Iteration:       2,
		TotalIterations: 3,
		ProgressPercent: 66.6,
		UserMessage:     "審查中",
	})

	var parsed map[string]any
	if err := json.Unmarshal(buf, &parsed); err != nil {
		t.Fatalf("expected a single JSON log line, got %q: %v", buf, err)
	}
	if parsed["stage"] != "critic" || parsed["message_type"] != "stage_update" {
		t.Fatalf("unexpected log fields: %v", parsed)
	}
}

type sliceWriter struct{ buf *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

func TestIterationLogger_LogIteration_WritesAtomicFile(t *testing.T) {
	dir := t.TempDir()
	l := &IterationLogger{Root: dir, QueryID: "q1"}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := l.LogIteration(1, "analyst", map[string]string{"draft": "草稿"}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(dir, "q1", "iteration_1_analyst.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected the iteration file to exist: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("expected valid JSON: %v", err)
	}
	if rec.Agent != "analyst" || rec.Iteration != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "q1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Fatalf("expected no leftover temp files in the trace dir, found %q", e.Name())
		}
	}
}

func TestIterationLogger_LogSessionSummary(t *testing.T) {
	dir := t.TempDir()
	l := &IterationLogger{Root: dir, QueryID: "q2"}

	if err := l.LogSessionSummary(map[string]string{"status": "completed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "q2", "session_summary.json")); err != nil {
		t.Fatalf("expected session_summary.json to exist: %v", err)
	}
}
