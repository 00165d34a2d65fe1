// Package suite runs tactic scenarios one after another and fans each result
// out to the configured sinks.
package suite

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"antsbot.ai/internal/persistence/archive"
	"antsbot.ai/internal/persistence/indexdb"
	runlog "antsbot.ai/internal/persistence/log"
	"antsbot.ai/internal/playgame"
	"antsbot.ai/internal/tactic"
	"antsbot.ai/internal/transport/feed"
)

// Sinks receive every result. Nil sinks are skipped.
type Sinks struct {
	Archive *archive.ReplayArchive
	Index   *indexdb.RunIndex
	RunLog  *runlog.RunLogger
	Feed    *feed.Server
}

type Summary struct {
	Passed  int
	Failed  int
	Results []tactic.Result
}

func (s Summary) OK() bool { return s.Failed == 0 }

type Suite struct {
	runner *playgame.Runner
	sinks  Sinks
	log    *log.Logger

	now   func() time.Time
	newID func() string
}

func New(runner *playgame.Runner, sinks Sinks, logger *log.Logger) *Suite {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Suite{
		runner: runner,
		sinks:  sinks,
		log:    logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run plays each scenario in order. report, if set, is called after each
// result has been persisted. A cancelled ctx stops before the next scenario.
func (s *Suite) Run(ctx context.Context, list []tactic.Scenario, report func(tactic.Result)) Summary {
	var sum Summary
	for _, sc := range list {
		if ctx.Err() != nil {
			break
		}
		res := s.RunScenario(ctx, sc)
		if res.Passed {
			sum.Passed++
		} else {
			sum.Failed++
		}
		sum.Results = append(sum.Results, res)
		if report != nil {
			report(res)
		}
	}
	if s.sinks.Feed != nil {
		s.sinks.Feed.PublishDone(sum.Passed, sum.Failed)
	}
	return sum
}

// RunScenario plays one scenario, evaluates its expectations and records the
// outcome. Sink failures are logged and never change the verdict.
func (s *Suite) RunScenario(ctx context.Context, sc tactic.Scenario) tactic.Result {
	started := s.now().UTC()
	res := tactic.Result{
		RunID:     s.newID(),
		Scenario:  sc.Name,
		StartedAt: started,
	}

	game, err := s.runner.RunGrid(ctx, sc.Grid, sc.Turns())
	res.DurationMs = s.now().UTC().Sub(started).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		s.record(ctx, res)
		return res
	}

	res.Cutoff = game.Replay.Cutoff
	res.GameLength = game.Replay.GameLength
	for _, ferr := range sc.Check(game.Replay) {
		res.Failures = append(res.Failures, ferr.Error())
	}
	res.Passed = len(res.Failures) == 0

	if s.sinks.Archive != nil {
		path, err := s.sinks.Archive.Store(archive.ReplayMeta{
			RunID:      res.RunID,
			Scenario:   res.Scenario,
			Passed:     res.Passed,
			Cutoff:     res.Cutoff,
			GameLength: res.GameLength,
			CreatedAt:  started.Format(time.RFC3339),
		}, game.Raw)
		if err != nil {
			s.log.Printf("archive %s: %v", sc.Name, err)
		} else {
			res.ArchivePath = path
		}
	}
	s.record(ctx, res)
	return res
}

func (s *Suite) record(ctx context.Context, res tactic.Result) {
	if s.sinks.Index != nil {
		if err := s.sinks.Index.RecordRun(ctx, res); err != nil {
			s.log.Printf("index %s: %v", res.Scenario, err)
		}
	}
	if s.sinks.RunLog != nil {
		if err := s.sinks.RunLog.WriteRun(res); err != nil {
			s.log.Printf("runlog %s: %v", res.Scenario, err)
		}
	}
	if s.sinks.Feed != nil {
		s.sinks.Feed.PublishResult(res)
	}
}
