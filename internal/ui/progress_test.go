package ui

import (
	"strings"
	"testing"

	"autoimport/internal/buildpipeline"
)

func TestApplyEventTracksAttempts(t *testing.T) {
	m := NewProgressModel("autoimport", []string{"src/main.rs", "src/lib.rs"}, nil).(*progressModel)

	m.applyEvent(buildpipeline.Event{File: "src/main.rs", Stage: buildpipeline.StageResolve, Status: buildpipeline.StatusWorking, Attempt: 3, Max: 10})
	if got := m.items[0].label(); got != "attempt 3/10" {
		t.Fatalf("label = %q", got)
	}
	if m.items[1].status != "queued" {
		t.Fatalf("untouched unit status = %q", m.items[1].status)
	}

	m.applyEvent(buildpipeline.Event{File: "src/main.rs", Stage: buildpipeline.StageResolve, Status: buildpipeline.StatusDone, Fixes: 2, Guessed: true})
	if m.items[0].status != "done" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	if got := m.items[0].suffix(); got != "  2 imports (guessed)" {
		t.Fatalf("suffix = %q", got)
	}

	// unknown units and build-wide events do not add rows
	m.applyEvent(buildpipeline.Event{File: "other.rs", Stage: buildpipeline.StageResolve, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageFinal, Status: buildpipeline.StatusWorking})
	if len(m.items) != 2 || m.stageLabel != "final build" {
		t.Fatalf("items=%d stage=%q", len(m.items), m.stageLabel)
	}

	view := m.View()
	if !strings.Contains(view, "src/lib.rs") || !strings.Contains(view, "final build") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestUnitProgress(t *testing.T) {
	tests := []struct {
		item unitItem
		want float64
	}{
		{unitItem{status: "queued"}, 0},
		{unitItem{status: "resolving", attempt: 5, max: 10}, 0.45},
		{unitItem{status: "resolving"}, 0},
		{unitItem{status: "done"}, 1},
		{unitItem{status: "error"}, 1},
	}
	for _, tt := range tests {
		if got := tt.item.progress(); got != tt.want {
			t.Fatalf("%+v progress = %v, want %v", tt.item, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("src/deeply/nested/main.rs", 10); got != "src/dee..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a.rs", 10); got != "a.rs" {
		t.Fatalf("truncate = %q", got)
	}
}
