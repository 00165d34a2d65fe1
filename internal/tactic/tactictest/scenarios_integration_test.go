//go:build integration

package tactictest

import (
	"os"
	"testing"

	"antsbot.ai/internal/playgame"
	"antsbot.ai/internal/tactic"
)

// TestScenarios_RealEngine plays every catalog scenario through
// tools/playgame.py. ANTS_TOOLS_DIR must point at the engine's tools dir;
// ANTS_BOT overrides the bot command line.
func TestScenarios_RealEngine(t *testing.T) {
	tools := os.Getenv("ANTS_TOOLS_DIR")
	if tools == "" {
		t.Skip("ANTS_TOOLS_DIR not set")
	}
	cfg := playgame.Defaults()
	cfg.WorkDir = tools
	if bot := os.Getenv("ANTS_BOT"); bot != "" {
		cfg.Bot = bot
	}

	list, err := tactic.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	for _, s := range list {
		t.Run(s.Name, func(t *testing.T) {
			h := NewHarness(t, cfg)
			h.RunScenario(s)
		})
	}
}
