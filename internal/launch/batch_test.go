package launch

import (
	"strings"
	"testing"
)

func TestNewBatchRejectsDuplicatesAndNegativeDelay(t *testing.T) {
	if _, err := NewBatch(requestsFor("a"), -1); err == nil {
		t.Fatalf("expected negative delay error")
	}
	if _, err := NewBatch(requestsFor("a", "b", "a"), 1); err == nil || !strings.Contains(err.Error(), `"a"`) {
		t.Fatalf("expected duplicate target error, got %v", err)
	}
	if _, err := NewBatch([]Request{{Target: Target{ID: "  "}}}, 1); err == nil {
		t.Fatalf("expected missing id error")
	}
	if _, err := NewBatch([]Request{{Target: Target{ID: "a"}, Mode: "profile"}}, 1); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestNewBatchFreezesRequests(t *testing.T) {
	requests := requestsFor("a", "b")
	requests[1].Mode = ""
	batch, err := NewBatch(requests, 3)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}
	requests[0].Target.ID = "mutated"
	got := batch.Requests()
	if got[0].Target.ID != "a" {
		t.Fatalf("batch shares caller slice: %+v", got)
	}
	if got[1].Mode != ModeRun {
		t.Fatalf("empty mode should default to run, got %q", got[1].Mode)
	}
	got[0].Target.ID = "changed"
	if batch.Requests()[0].Target.ID != "a" {
		t.Fatalf("Requests must return a copy")
	}
	if batch.ID() == "" || batch.Len() != 2 || batch.DelaySeconds() != 3 {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeRun, "run": ModeRun, " Debug ": ModeDebug}
	for input, want := range cases {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseMode("coverage"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestTargetLabelFallsBackToID(t *testing.T) {
	if got := (Target{ID: "api"}).Label(); got != "api" {
		t.Fatalf("label = %q", got)
	}
	if got := (Target{ID: "api", Name: "API Server"}).Label(); got != "API Server" {
		t.Fatalf("label = %q", got)
	}
}
