// Package tactictest runs tactic maps through the real engine from go test.
package tactictest

import (
	"context"
	"testing"

	"antsbot.ai/internal/fixture"
	"antsbot.ai/internal/playgame"
	"antsbot.ai/internal/replay"
	"antsbot.ai/internal/tactic"
	"antsbot.ai/internal/tactic/assert"
)

// Harness drives the external engine from a Go test:
// - RunMap()/RunScenario() build a temp map, run playgame and keep the replay
// - Assert*() check the kept replay and fail the test on mismatch
//
// Temp files and the engine's log dir are always removed, pass or fail.
type Harness struct {
	T      testing.TB
	Runner *playgame.Runner

	// Replay is the replay of the last run.
	Replay *replay.Replay
}

func NewHarness(t testing.TB, cfg playgame.Config) *Harness {
	t.Helper()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("playgame config: %v", err)
	}
	return &Harness{T: t, Runner: playgame.NewRunner(cfg, nil)}
}

// RunMap runs the ASCII map src for turns turns (0 for the configured
// default). A map with rows of different widths fails the test before the
// engine is started.
func (h *Harness) RunMap(src string, turns int) *replay.Replay {
	h.T.Helper()
	g, err := fixture.ParseGrid(src)
	if err != nil {
		h.T.Fatalf("map: %v", err)
	}
	return h.run(g, turns)
}

// RunScenario runs s and fails the test on every expectation that does not
// hold, reporting all of them.
func (h *Harness) RunScenario(s tactic.Scenario) *replay.Replay {
	h.T.Helper()
	r := h.run(s.Grid, s.Turns())
	errs := s.Check(r)
	for _, err := range errs {
		h.T.Errorf("%s: %v", s.Name, err)
	}
	if len(errs) > 0 {
		h.T.FailNow()
	}
	return r
}

func (h *Harness) run(g fixture.Grid, turns int) *replay.Replay {
	h.T.Helper()
	res, err := h.Runner.RunGrid(context.Background(), g, turns)
	if err != nil {
		if res != nil && len(res.Output) > 0 {
			h.T.Logf("playgame output:\n%s", res.Output)
		}
		h.T.Fatalf("playgame: %v", err)
	}
	h.Replay = res.Replay
	return res.Replay
}

func (h *Harness) mustReplay() *replay.Replay {
	h.T.Helper()
	if h.Replay == nil {
		h.T.Fatalf("no replay: run a map first")
	}
	return h.Replay
}

func (h *Harness) AssertSurvived(player int) {
	h.T.Helper()
	if err := assert.Survived(h.mustReplay(), player); err != nil {
		h.T.Fatalf("%v", err)
	}
}

func (h *Harness) AssertFoodEaten(row, col, turn, player int) {
	h.T.Helper()
	if err := assert.FoodEaten(h.mustReplay(), row, col, turn, player); err != nil {
		h.T.Fatalf("%v", err)
	}
}

func (h *Harness) AssertCutoff(reason string) {
	h.T.Helper()
	if err := assert.Cutoff(h.mustReplay(), reason); err != nil {
		h.T.Fatalf("%v", err)
	}
}

func (h *Harness) AssertGameLength(turns int) {
	h.T.Helper()
	if err := assert.GameLength(h.mustReplay(), turns); err != nil {
		h.T.Fatalf("%v", err)
	}
}
