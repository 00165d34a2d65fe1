package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"antsbot.ai/internal/replay"
)

func TestPrintSummary(t *testing.T) {
	r, err := replay.Decode([]byte(`{"status":["survived","eaten"],"game_length":6,
  "replaydata":{"cutoff":"rank stabilized","food":[[1,4,0,3,0],[2,2,1],[3,3,0,6]]}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	printSummary(&buf, "0.replay", r, true)

	want := strings.Join([]string{
		`replay 0.replay: game_length=6 cutoff="rank stabilized" players=2 food=3 eaten=1`,
		"  player 0: survived",
		"  player 1: eaten",
		"  food (row col spawn -> turn player):",
		"      1   4    0 ->    3 0",
		"      2   2    1 -> uneaten",
		"      3   3    0 -> uneaten, gone on 6",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}
