// Package playgame runs the external ants engine (tools/playgame.py) on a
// single map and collects the replay it writes.
package playgame

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"antsbot.ai/internal/fixture"
	"antsbot.ai/internal/replay"
)

// ReplayName is the file playgame writes for the first (and only) game.
const ReplayName = "0.replay"

type Config struct {
	// Command is the interpreter and script, e.g. ["python", "./playgame.py"].
	Command []string `yaml:"command"`
	// WorkDir is where Command runs; bot command lines are relative to it.
	WorkDir string `yaml:"work_dir"`
	// Env is appended to the inherited environment.
	Env []string `yaml:"env,omitempty"`

	Turns    int    `yaml:"turns"`
	Food     string `yaml:"food"`
	Bot      string `yaml:"bot"`
	Opponent string `yaml:"opponent"`

	// Timeout bounds a single game. Zero means wait for the engine however
	// long it takes.
	Timeout time.Duration `yaml:"timeout"`
}

func Defaults() Config {
	return Config{
		Command:  []string{"python", "./playgame.py"},
		WorkDir:  "./tools",
		Turns:    30,
		Food:     "none",
		Bot:      "java clojure.main ../MyBot.clj",
		Opponent: "python submission_test/TestBot.py",
	}
}

// Normalize fills zero values from Defaults.
func (c *Config) Normalize() {
	d := Defaults()
	if len(c.Command) == 0 {
		c.Command = d.Command
	}
	c.WorkDir = strings.TrimSpace(c.WorkDir)
	if c.WorkDir == "" {
		c.WorkDir = d.WorkDir
	}
	if c.Turns == 0 {
		c.Turns = d.Turns
	}
	c.Food = strings.TrimSpace(c.Food)
	if c.Food == "" {
		c.Food = d.Food
	}
	c.Bot = strings.TrimSpace(c.Bot)
	if c.Bot == "" {
		c.Bot = d.Bot
	}
	c.Opponent = strings.TrimSpace(c.Opponent)
	if c.Opponent == "" {
		c.Opponent = d.Opponent
	}
}

func (c Config) Validate() error {
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return fmt.Errorf("playgame: empty command")
	}
	if c.Turns <= 0 {
		return fmt.Errorf("playgame: turns must be positive, got %d", c.Turns)
	}
	if c.Bot == "" || c.Opponent == "" {
		return fmt.Errorf("playgame: bot and opponent commands are required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("playgame: negative timeout %s", c.Timeout)
	}
	return nil
}

// Args returns the engine arguments for one game, in the order playgame.py
// expects them.
func (c Config) Args(logDir, mapPath string, turns int) []string {
	if turns <= 0 {
		turns = c.Turns
	}
	return []string{
		"--food", c.Food,
		"--log_dir", logDir,
		"--turns", strconv.Itoa(turns),
		"--map_file", mapPath,
		c.Bot,
		c.Opponent,
		"--nolaunch",
		"-e",
		"--strict",
		"--capture_errors",
	}
}

// Result is what one engine invocation produced.
type Result struct {
	Replay *replay.Replay
	// Raw is the replay exactly as the engine wrote it.
	Raw []byte
	// Output is the engine's combined stdout and stderr.
	Output []byte
	// ExitErr is the engine's exit error, if any. A non-zero exit does not
	// fail the run on its own; only a missing or invalid replay does.
	ExitErr  error
	Duration time.Duration
}

type Runner struct {
	cfg Config
	log *log.Logger

	// TempDir is the parent of map files and log dirs; os.TempDir when empty.
	TempDir string
}

func NewRunner(cfg Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{cfg: cfg, log: logger}
}

func (r *Runner) Config() Config { return r.cfg }

// RunGrid writes g to a temp map file, runs it and removes the file again.
func (r *Runner) RunGrid(ctx context.Context, g fixture.Grid, turns int) (*Result, error) {
	mapPath, cleanup, err := fixture.WriteTemp(g, r.TempDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return r.Run(ctx, mapPath, turns)
}

// Run plays one game on mapPath and returns the decoded replay. The log dir
// handed to the engine is created fresh and removed before Run returns,
// whatever happened.
func (r *Runner) Run(ctx context.Context, mapPath string, turns int) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	absMap, err := filepath.Abs(mapPath)
	if err != nil {
		return nil, err
	}

	logDir, err := os.MkdirTemp(r.TempDir, "playgame-log-*")
	if err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(logDir); err != nil {
			r.log.Printf("remove log dir %s: %v", logDir, err)
		}
	}()
	absLog, err := filepath.Abs(logDir)
	if err != nil {
		return nil, err
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), r.cfg.Command[1:]...), r.cfg.Args(absLog, absMap, turns)...)
	cmd := exec.CommandContext(ctx, r.cfg.Command[0], args...)
	cmd.Dir = r.cfg.WorkDir
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	exitErr := cmd.Run()
	res := &Result{
		Output:   out.Bytes(),
		ExitErr:  exitErr,
		Duration: time.Since(start),
	}
	if exitErr != nil {
		var ee *exec.ExitError
		if !errors.As(exitErr, &ee) {
			// The engine never started (missing interpreter, bad work dir).
			return res, fmt.Errorf("start playgame: %w", exitErr)
		}
		r.log.Printf("playgame exited: %v", exitErr)
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("playgame: %w", ctx.Err())
	}

	raw, err := os.ReadFile(filepath.Join(absLog, ReplayName))
	if err != nil {
		return res, fmt.Errorf("read replay: %w", err)
	}
	res.Raw = raw
	rp, err := replay.Decode(raw)
	if err != nil {
		return res, err
	}
	res.Replay = rp
	return res, nil
}
