// Package tracer implements the Progress Tracer (a best-effort callback
// sink) and the Iteration Logger (durable, atomically-written per-iteration
// JSON trace records).
package tracer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/reasoncore/internal/ports"
)

// NoopProgressSink discards every event; used when a caller doesn't supply
// one, so the orchestrator never needs a nil check.
type NoopProgressSink struct{}

func (NoopProgressSink) EmitProgress(ports.ProgressEvent) {}

// LoggingProgressSink relays progress events to a zerolog.Logger. Never
// blocks and never returns an error: a broken sink must not fail the
// reasoning loop.
type LoggingProgressSink struct {
	Log zerolog.Logger
}

func (s LoggingProgressSink) EmitProgress(e ports.ProgressEvent) {
	s.Log.Info().
		Str("message_type", e.MessageType).
		Str("stage", e.Stage).
		Int("iteration", e.Iteration).
		Int("total_iterations", e.TotalIterations).
		Float64("progress_percent", e.ProgressPercent).
		Str("user_message", e.UserMessage).
		Msg("progress")
}

// IterationLogger persists one JSON record per agent call under
// <TraceRoot>/<queryID>/iteration_<n>_<agent>.json, plus a final
// session_summary.json, using a write-to-temp-then-rename sequence so a
// reader never observes a partially written file even under concurrent
// gap-adapter fan-out.
type IterationLogger struct {
	Root    string
	QueryID string
}

// Record is one logged event; Payload carries the agent output or
// resolution detail as already-serializable data.
type Record struct {
	Agent     string      `json:"agent"`
	Iteration int         `json:"iteration"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func (l *IterationLogger) dir() string {
	return filepath.Join(l.Root, l.QueryID)
}

// LogIteration writes one agent's output for a given iteration.
func (l *IterationLogger) LogIteration(iteration int, agent string, payload interface{}, now time.Time) error {
	rec := Record{Agent: agent, Iteration: iteration, Timestamp: now, Payload: payload}
	name := fmt.Sprintf("iteration_%d_%s.json", iteration, agent)
	return l.writeAtomic(name, rec)
}

// LogSessionSummary writes the final session_summary.json.
func (l *IterationLogger) LogSessionSummary(summary interface{}) error {
	return l.writeAtomic("session_summary.json", summary)
}

func (l *IterationLogger) writeAtomic(name string, v interface{}) error {
	dir := l.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tracer: mkdir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("tracer: marshal %s: %w", name, err)
	}

	finalPath := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("tracer: create temp for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("tracer: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("tracer: close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("tracer: rename into place %s: %w", name, err)
	}
	return nil
}
