package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"antsbot.ai/internal/config"
	"antsbot.ai/internal/persistence/archive"
	"antsbot.ai/internal/persistence/indexdb"
	runlog "antsbot.ai/internal/persistence/log"
	"antsbot.ai/internal/playgame"
	"antsbot.ai/internal/suite"
	"antsbot.ai/internal/tactic"
	"antsbot.ai/internal/transport/feed"
)

const defaultConfigPath = "./configs/harness.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", defaultConfigPath, "path to harness.yaml (built-in defaults when the default path is absent)")
		scenarioDir = flag.String("scenarios", "", "extra directory of *.txtar scenarios (overrides built-ins by name)")
		runPattern  = flag.String("run", "", "only run scenarios whose name matches this regexp")
		list        = flag.Bool("list", false, "list scenarios and exit")
		turns       = flag.Int("turns", 0, "override the default turn limit (scenarios with their own limit keep it)")
		feedListen  = flag.String("feed_listen", "", "results feed listen address, overrides feed.listen (loopback only)")
		noPersist   = flag.Bool("no_persist", false, "skip archive, index and run log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[tactics] ", log.LstdFlags|log.Lmicroseconds)

	path := *configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}
	if *turns > 0 {
		cfg.Playgame.Turns = *turns
	}
	if v := strings.TrimSpace(*feedListen); v != "" {
		cfg.Feed.Listen = v
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "feed_listen:", err)
			return 2
		}
	}

	scenarios, err := tactic.LoadCatalog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load scenarios:", err)
		return 1
	}
	if *scenarioDir != "" {
		extra, err := tactic.LoadDir(*scenarioDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load scenarios:", err)
			return 1
		}
		scenarios = tactic.Merge(scenarios, extra)
	}
	scenarios, err = tactic.Filter(scenarios, *runPattern)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -run pattern:", err)
		return 2
	}

	rep := newReporter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
	if *list {
		rep.list(scenarios)
		return 0
	}
	if len(scenarios) == 0 {
		fmt.Fprintln(os.Stderr, "no scenarios match", *runPattern)
		return 1
	}

	var sinks suite.Sinks
	if !*noPersist {
		if cfg.Archive.Enabled {
			sinks.Archive = archive.NewReplayArchive(cfg.Archive.Dir)
		}
		if cfg.Index.Enabled {
			idx, err := indexdb.OpenRunIndex(cfg.Index.Path)
			if err != nil {
				fmt.Fprintln(os.Stderr, "open run index:", err)
				return 1
			}
			defer idx.Close()
			sinks.Index = idx
		}
		if cfg.RunLog.Enabled {
			rl := runlog.NewRunLogger(cfg.RunLog.Dir)
			defer rl.Close()
			sinks.RunLog = rl
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Feed.Listen != "" {
		sinks.Feed = feed.NewServer(logger)
		srv := &http.Server{
			Addr:              cfg.Feed.Listen,
			Handler:           sinks.Feed.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Printf("results feed on ws://%s/v1/results", cfg.Feed.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("feed: %v", err)
			}
		}()
		feedSrv := sinks.Feed
		defer func() {
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			// Shutdown does not wait for hijacked websocket connections.
			if err := feedSrv.Close(ctx2); err != nil {
				logger.Printf("feed close: %v", err)
			}
			_ = srv.Shutdown(ctx2)
		}()
	}

	runner := playgame.NewRunner(cfg.Playgame, logger)
	logger.Printf("running %d scenarios (engine %q in %s)", len(scenarios), strings.Join(cfg.Playgame.Command, " "), cfg.Playgame.WorkDir)

	sum := suite.New(runner, sinks, logger).Run(ctx, scenarios, rep.result)
	rep.summary(sum, len(scenarios))

	if ctx.Err() != nil || !sum.OK() {
		return 1
	}
	return 0
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
