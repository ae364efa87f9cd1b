package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeSession, false},
		{LevelStage, ScopeStage, true},
		{LevelStage, ScopeModule, false},
		{LevelModule, ScopeModule, true},
		{LevelModule, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStartNestsUnderContextParent(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	ctx, stage := Start(ctx, ScopeStage, "analyze")
	_, node := Start(ctx, ScopeNode, "node:main")
	node.End("")
	stage.End("ok")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[1].ParentID != stage.ID() {
		t.Fatalf("node span parent = %d, want %d", events[1].ParentID, stage.ID())
	}
	if events[3].Detail != "ok" {
		t.Fatalf("stage end detail = %q", events[3].Detail)
	}
}

func TestFilteredSpanPassesParentThrough(t *testing.T) {
	ring := NewRingTracer(16, LevelStage)
	ctx := WithTracer(context.Background(), ring)

	ctx, stage := Start(ctx, ScopeStage, "finalize")
	ctx, mod := Start(ctx, ScopeModule, "module:lib")
	if mod.ID() != stage.ID() {
		t.Fatalf("filtered span should report parent id %d, got %d", stage.ID(), mod.ID())
	}
	_ = ctx
	mod.End("")
	stage.End("")
	if n := len(ring.Snapshot()); n != 2 {
		t.Fatalf("expected only stage events, got %d", n)
	}
}

func TestRingWrapsOldestFirst(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeStage, name, "", 0)
	}
	got := ring.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	s := Begin(tr, ScopeStage, "check", 0)
	s.WithExtra("nodes", "3").WithExtra("errors", "0")
	s.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[1], "← check (done) {errors=0, nodes=3}") {
		t.Fatalf("unexpected end line %q", lines[1])
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatalf("LevelOff tracer must be disabled")
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestHeartbeatStopIdempotent(t *testing.T) {
	if hb := StartHeartbeat(Nop, time.Millisecond); hb != nil {
		t.Fatalf("disabled tracer must not start a heartbeat")
	}
	ring := NewRingTracer(64, LevelStage)
	hb := StartHeartbeat(ring, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	hb.Stop()
	hb.Stop()
	for _, ev := range ring.Snapshot() {
		if ev.Name != "heartbeat" || ev.Kind != KindPoint {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}
