package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"antsbot.ai/internal/submit"
)

func TestLoad_HarnessYAML(t *testing.T) {
	cfg, err := Load("../../configs/harness.yaml")
	if err != nil {
		t.Fatalf("load harness.yaml: %v", err)
	}
	if cfg.Playgame.Turns != 30 || cfg.Playgame.Food != "none" {
		t.Fatalf("playgame defaults not kept: %+v", cfg.Playgame)
	}
	if !cfg.Archive.Enabled || !cfg.Index.Enabled || cfg.RunLog.Enabled {
		t.Fatalf("unexpected sink switches: archive=%v index=%v runlog=%v", cfg.Archive.Enabled, cfg.Index.Enabled, cfg.RunLog.Enabled)
	}
	if cfg.Feed.Listen != "" {
		t.Fatalf("feed should be off by default, got %q", cfg.Feed.Listen)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("  ")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := submit.DefaultEndpoints("http://aichallenge.org/")
	if diff := cmp.Diff(want, cfg.Upload.Endpoints()); diff != "" {
		t.Fatalf("endpoints mismatch (-want +got):\n%s", diff)
	}
	if cfg.Playgame.Timeout != 0 {
		t.Fatalf("default timeout should be unset, got %s", cfg.Playgame.Timeout)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harness.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_OverridesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
playgame:
  turns: 60
  timeout: 90s
  bot: "  ./MyBot  "
upload:
  base_url: https://ants.example.org/contest/
  login_path: /auth.php
  timeout: 10s
feed:
  listen: 127.0.0.1:8091
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Playgame.Turns != 60 || cfg.Playgame.Timeout != 90*time.Second {
		t.Fatalf("playgame: turns=%d timeout=%s", cfg.Playgame.Turns, cfg.Playgame.Timeout)
	}
	if cfg.Playgame.Bot != "./MyBot" {
		t.Fatalf("bot not trimmed: %q", cfg.Playgame.Bot)
	}
	if cfg.Playgame.Opponent == "" || len(cfg.Playgame.Command) == 0 {
		t.Fatalf("unset playgame fields should keep defaults: %+v", cfg.Playgame)
	}
	ep := cfg.Upload.Endpoints()
	if ep.Login != "https://ants.example.org/contest/auth.php" {
		t.Fatalf("login url: %q", ep.Login)
	}
	if ep.SubmitCheck != "https://ants.example.org/contest/check_submit.php" {
		t.Fatalf("check url: %q", ep.SubmitCheck)
	}
	if cfg.Upload.Timeout != 10*time.Second {
		t.Fatalf("upload timeout: %s", cfg.Upload.Timeout)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative turns":    "playgame:\n  turns: -1\n",
		"relative base":     "upload:\n  base_url: aichallenge.org\n",
		"public feed":       "feed:\n  listen: 0.0.0.0:8091\n",
		"feed without port": "feed:\n  listen: localhost\n",
		"negative timeout":  "playgame:\n  timeout: -5s\n",
		"bad yaml":          "playgame: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.HasPrefix(err.Error(), "harness.yaml: ") {
				t.Fatalf("error should name the file: %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
