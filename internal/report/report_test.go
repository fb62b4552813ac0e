package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

func sampleReport() domain.ResearchReport {
	return domain.ResearchReport{
		Title:        "測試報告",
		BodyMarkdown: "# 標題\n\n內容段落[1]。",
		Sources: []domain.ReportSource{
			{Index: 1, URLOrURN: "https://gov.example/a", Publisher: "Gov", Tier: domain.TierOfficial},
		},
		Mode:            domain.ModeDiscovery,
		IterationsUsed:  2,
		Confidence:      domain.ConfidenceHigh,
		MethodologyNote: "方法論說明",
		Warnings:        []string{"一個警告"},
		GeneratedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Model:           "gpt-4o",
	}
}

func TestAppendReproFooter(t *testing.T) {
	out := AppendReproFooter("內容", FooterMeta{
		Model: "gpt-4o", Mode: domain.ModeStrict, IterationsUsed: 3,
		Confidence: domain.ConfidenceMedium, GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !strings.Contains(out, "model=gpt-4o") || !strings.Contains(out, "mode=strict") {
		t.Fatalf("unexpected footer: %q", out)
	}
	if !strings.Contains(out, "generated_at=2026-01-01T00:00:00Z") {
		t.Fatalf("expected RFC3339 UTC timestamp, got %q", out)
	}
}

func TestBuildManifest_ProjectsSources(t *testing.T) {
	m := BuildManifest(sampleReport())
	if m.Model != "gpt-4o" || len(m.Sources) != 1 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.Sources[0].URL != "https://gov.example/a" || m.Sources[0].Tier != domain.TierOfficial {
		t.Fatalf("unexpected manifest source: %+v", m.Sources[0])
	}
}

func TestWriteMarkdown_WritesFooterAndBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")
	if err := WriteMarkdown(path, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "內容段落[1]") || !strings.Contains(content, "Reproducibility:") {
		t.Fatalf("unexpected markdown content: %q", content)
	}
}

func TestWriteManifestSidecar_WritesValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.manifest.json")
	if err := WriteManifestSidecar(path, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("expected valid JSON manifest: %v", err)
	}
	if m.IterationsUsed != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestDeriveManifestSidecarPath(t *testing.T) {
	if got := DeriveManifestSidecarPath("/tmp/report.md"); got != "/tmp/report.manifest.json" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := DeriveManifestSidecarPath("/tmp/report"); got != "/tmp/report.manifest.json" {
		t.Fatalf("unexpected path for an extension-less input: %q", got)
	}
}

func TestWritePDF_ProducesNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")
	if err := WritePDF(path, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected the PDF file to exist: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected a non-empty PDF file")
	}
}
