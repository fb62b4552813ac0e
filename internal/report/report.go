// Package report renders a domain.ResearchReport to its on-disk artifacts:
// a Markdown file with a reproducibility footer, an optional JSON manifest
// sidecar, and an optional simple PDF rendering.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

// FooterMeta is the reproducibility information appended to every Markdown
// report: model, mode, iteration count, and confidence level.
type FooterMeta struct {
	Model          string
	Mode           domain.Mode
	IterationsUsed int
	Confidence     domain.ConfidenceLevel
	GeneratedAt    time.Time
}

// AppendReproFooter appends a minimal, deterministic footer recording the
// configuration needed to reproduce or audit a research session.
func AppendReproFooter(markdown string, meta FooterMeta) string {
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n\n---\n")
	b.WriteString("Reproducibility: model=")
	b.WriteString(strings.TrimSpace(meta.Model))
	b.WriteString("; mode=")
	b.WriteString(string(meta.Mode))
	b.WriteString("; iterations=")
	b.WriteString(strconv.Itoa(meta.IterationsUsed))
	b.WriteString("; confidence=")
	b.WriteString(string(meta.Confidence))
	b.WriteString("; generated_at=")
	b.WriteString(meta.GeneratedAt.UTC().Format(time.RFC3339))
	b.WriteString("\n")
	return b.String()
}

// Manifest is the JSON sidecar persisted alongside the Markdown report: the
// ordered source list plus run metadata.
type Manifest struct {
	Model          string                `json:"model"`
	Mode           domain.Mode           `json:"mode"`
	IterationsUsed int                   `json:"iterations_used"`
	Confidence     domain.ConfidenceLevel `json:"confidence"`
	GeneratedAt    time.Time             `json:"generated_at"`
	Warnings       []string              `json:"warnings,omitempty"`
	Sources        []domain.ManifestEntry `json:"sources"`
}

// BuildManifest projects a ResearchReport into its sidecar shape.
func BuildManifest(rep domain.ResearchReport) Manifest {
	entries := make([]domain.ManifestEntry, 0, len(rep.Sources))
	for _, s := range rep.Sources {
		entries = append(entries, domain.ManifestEntry{
			Index: s.Index,
			URL:   s.URLOrURN,
			Title: s.Publisher,
			Tier:  s.Tier,
		})
	}
	return Manifest{
		Model:          rep.Model,
		Mode:           rep.Mode,
		IterationsUsed: rep.IterationsUsed,
		Confidence:     rep.Confidence,
		GeneratedAt:    rep.GeneratedAt,
		Warnings:       rep.Warnings,
		Sources:        entries,
	}
}

// WriteMarkdown writes the report's body plus reproducibility footer to
// outputPath. This is a one-shot artifact write at session end, not the
// concurrent, atomically-written per-iteration traces internal/tracer owns.
func WriteMarkdown(outputPath string, rep domain.ResearchReport) error {
	content := AppendReproFooter(rep.BodyMarkdown, FooterMeta{
		Model:          rep.Model,
		Mode:           rep.Mode,
		IterationsUsed: rep.IterationsUsed,
		Confidence:     rep.Confidence,
		GeneratedAt:    rep.GeneratedAt,
	})
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("report: write markdown %s: %w", outputPath, err)
	}
	return nil
}

// WriteManifestSidecar writes the JSON manifest next to the Markdown report.
func WriteManifestSidecar(path string, rep domain.ResearchReport) error {
	data, err := json.MarshalIndent(BuildManifest(rep), "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write manifest %s: %w", path, err)
	}
	return nil
}

// DeriveManifestSidecarPath returns the sidecar JSON path next to the output
// Markdown path.
func DeriveManifestSidecarPath(outputPath string) string {
	trimmed := strings.TrimSuffix(outputPath, ".md")
	if trimmed == outputPath {
		return outputPath + ".manifest.json"
	}
	return trimmed + ".manifest.json"
}
