package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"antsbot.ai/internal/suite"
	"antsbot.ai/internal/tactic"
)

func TestReporter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf, false)
	r.result(tactic.Result{Scenario: "annihilation", Passed: true, DurationMs: 1500})
	r.result(tactic.Result{
		Scenario:    "raze_hill",
		DurationMs:  250,
		Failures:    []string{"line 2 (length 6): game length mismatch: got 9 turns, want 6"},
		ArchivePath: "data/replays/raze_hill/x.replay.zst",
	})
	r.summary(suite.Summary{Passed: 1, Failed: 1}, 3)

	want := strings.Join([]string{
		"--- PASS: annihilation (1.50s)",
		"--- FAIL: raze_hill (0.25s)",
		"    line 2 (length 6): game length mismatch: got 9 turns, want 6",
		"    replay: data/replays/raze_hill/x.replay.zst",
		"FAIL\t1 passed, 1 failed, 1 not run",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestReporter_ColorOnlyOnTerminal(t *testing.T) {
	var buf bytes.Buffer
	newReporter(&buf, true).summary(suite.Summary{Passed: 2}, 2)
	if !strings.Contains(buf.String(), ansiGreen+"ok"+ansiReset) {
		t.Fatalf("expected colored verdict, got %q", buf.String())
	}
}

func TestReporter_ListShowsFirstDocLine(t *testing.T) {
	var buf bytes.Buffer
	newReporter(&buf, false).list([]tactic.Scenario{{Name: "optimal_food", Doc: "Takes the short path.\nMore detail."}})
	if got := buf.String(); !strings.HasPrefix(got, "optimal_food") || !strings.Contains(got, "Takes the short path.") || strings.Contains(got, "More detail") {
		t.Fatalf("list output: %q", got)
	}
}

func TestReporter_SummaryCountsNotRun(t *testing.T) {
	var buf bytes.Buffer
	sum := suite.Summary{Passed: 1, Results: []tactic.Result{{Scenario: "annihilation", Passed: true}}}
	newReporter(&buf, false).summary(sum, 1)
	if got := buf.String(); got != "ok\t1 passed, 0 failed\n" {
		t.Fatalf("summary: %q", got)
	}
}
