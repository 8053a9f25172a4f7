package display

import (
	"strings"
	"testing"
	"time"

	"blockmate/internal/metrics"
	"blockmate/internal/parser"
	"blockmate/internal/pipeline"
)

func TestFormatResult(t *testing.T) {
	testCases := []struct {
		name     string
		cm       *metrics.CommandMetrics
		expected []string
	}{
		{
			name: "partial success",
			cm: &metrics.CommandMetrics{
				CommandID:    "abc123",
				Succeeded:    true,
				SuccessCount: 1,
				DurationMs:   1500,
				Actions: []metrics.ActionMetrics{
					{Kind: "mine", Success: true, DurationMs: 400},
					{Kind: "place", Success: false, Err: "place is not implemented"},
				},
			},
			expected: []string{
				"[Command abc123 DONE] 1/2 action(s) succeeded",
				"1. mine",
				"ok",
				"2. place",
				"FAILED: place is not implemented",
			},
		},
		{
			name: "all failed",
			cm: &metrics.CommandMetrics{
				CommandID: "def456",
				Actions: []metrics.ActionMetrics{
					{Kind: "move", Success: false, Err: "could not reach (1.0, 64.0, 2.0)"},
				},
			},
			expected: []string{"[Command def456 FAILED] 0/1 action(s) succeeded"},
		},
		{
			name: "nothing to do",
			cm: &metrics.CommandMetrics{
				CommandID: "ghi789",
				Reason:    "could not understand the instruction",
			},
			expected: []string{"[Command ghi789 SKIPPED] could not understand the instruction"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := FormatResult(tc.cm)
			for _, fragment := range tc.expected {
				if !strings.Contains(out, fragment) {
					t.Errorf("output missing %q:\n%s", fragment, out)
				}
			}
		})
	}
}

func TestFormatStatus(t *testing.T) {
	out := FormatStatus(pipeline.Status{IsExecuting: true, HistoryCount: 4})
	if !strings.Contains(out, "executing") || !strings.Contains(out, "history: 4") {
		t.Errorf("unexpected status line: %s", out)
	}

	out = FormatStatus(pipeline.Status{})
	if !strings.Contains(out, "idle") {
		t.Errorf("unexpected status line: %s", out)
	}
}

func TestFormatHistory(t *testing.T) {
	if out := FormatHistory(nil); !strings.Contains(out, "No commands") {
		t.Errorf("empty history: %s", out)
	}

	entries := []pipeline.HistoryEntry{
		{
			Input:        "mine some stone",
			Actions:      []parser.Action{{Kind: parser.KindMine}},
			SuccessCount: 1,
			Timestamp:    time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC),
		},
	}
	out := FormatHistory(entries)
	for _, fragment := range []string{"12:30:45", `"mine some stone"`, "1/1 succeeded"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("history output missing %q:\n%s", fragment, out)
		}
	}
}

func TestFormatPlanTruncatesLongValues(t *testing.T) {
	plan := &parser.Plan{
		Reasoning: "say a lot",
		Actions: []parser.Action{
			{Kind: parser.KindChat, Params: map[string]any{"message": strings.Repeat("a", 200)}},
		},
	}
	out := FormatPlan(plan)
	if !strings.Contains(out, "...") {
		t.Error("long parameter values must be truncated")
	}
	if !strings.Contains(out, "Reasoning: say a lot") {
		t.Error("reasoning missing from plan preview")
	}
	if !strings.Contains(out, "1. chat") {
		t.Error("action listing missing")
	}
}
