package ui

import (
	"strings"
	"testing"

	"ledgerc/internal/pipeline"
)

func TestApplyEventTracksUnits(t *testing.T) {
	events := make(chan pipeline.Event)
	m := NewProgressModel("check", []string{"counter", "token"}, events).(*progressModel)

	m.applyEvent(pipeline.Event{Unit: "counter", Stage: pipeline.StageAnalyze, Status: pipeline.StatusWorking})
	m.applyEvent(pipeline.Event{Unit: "token", Stage: pipeline.StageCheck, Status: pipeline.StatusError})
	m.applyEvent(pipeline.Event{Unit: "unknown", Stage: pipeline.StageCheck, Status: pipeline.StatusWorking})

	if m.items[0].status != "analyzing" || m.items[1].status != "error" {
		t.Fatalf("items = %+v", m.items)
	}
	if got := m.percent(); got != (0.6+1.0)/2 {
		t.Fatalf("percent = %v", got)
	}
	view := m.View()
	if !strings.Contains(view, "counter") || !strings.Contains(view, "analyzing") {
		t.Fatalf("view = %q", view)
	}
}

func TestRunStageLabel(t *testing.T) {
	m := NewProgressModel("build", []string{"a"}, nil).(*progressModel)
	m.applyEvent(pipeline.Event{Stage: pipeline.StageEmit, Status: pipeline.StatusWorking})
	if m.stageLabel != "emitting" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a-very-long-unit-name", 10, "a-very-..."},
		{"abcdef", 3, "abc"},
		{"日本語の名前", 7, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
