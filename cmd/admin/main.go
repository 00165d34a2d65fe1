package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"antsbot.ai/internal/persistence/indexdb"
	runlog "antsbot.ai/internal/persistence/log"
	"antsbot.ai/internal/tactic"
	"antsbot.ai/internal/transport/feed"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "runs":
			runsCmd(os.Args[2:])
			return
		case "stats":
			statsCmd(os.Args[2:])
			return
		case "log":
			logCmd(os.Args[2:])
			return
		case "watch":
			watchCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin runs|stats|log|watch [flags]")
	os.Exit(2)
}

func openIndex(path string) *indexdb.RunIndex {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	x, err := indexdb.OpenRunIndex(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return x
}

func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "./data/runs.sqlite", "run index path")
	scenario := fs.String("scenario", "", "scenario filter (optional)")
	limit := fs.Int("limit", 20, "result limit")
	asJSON := fs.Bool("json", false, "print one JSON object per line")
	_ = fs.Parse(args)

	x := openIndex(*dbPath)
	defer x.Close()

	runs, err := x.RecentRuns(context.Background(), strings.TrimSpace(*scenario), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range runs {
		if *asJSON {
			b, _ := json.Marshal(r)
			fmt.Println(string(b))
			continue
		}
		fmt.Println(runLine(r))
	}
}

func runLine(r tactic.Result) string {
	verdict := "PASS"
	if !r.Passed {
		verdict = "FAIL"
	}
	line := fmt.Sprintf("%s %s %-20s %s len=%d cutoff=%q", r.StartedAt.Format(time.RFC3339), verdict, r.Scenario, r.RunID, r.GameLength, r.Cutoff)
	if r.Error != "" {
		line += " error=" + r.Error
	}
	for _, f := range r.Failures {
		line += "\n    " + f
	}
	return line
}

func statsCmd(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", "./data/runs.sqlite", "run index path")
	_ = fs.Parse(args)

	x := openIndex(*dbPath)
	defer x.Close()

	stats, err := x.Stats(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, s := range stats {
		last := "fail"
		if s.LastPassed {
			last = "pass"
		}
		fmt.Printf("%-20s %3d/%-3d last=%s at %s\n", s.Scenario, s.Passed, s.Total, last, s.LastRun.Format(time.RFC3339))
	}
}

func logCmd(args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	dir := fs.String("dir", "./data/runlog", "run log directory")
	scenario := fs.String("scenario", "", "scenario filter (optional)")
	failedOnly := fs.Bool("failed", false, "only failed runs")
	_ = fs.Parse(args)

	files, err := runlog.ListRunFiles(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, path := range files {
		runs, err := runlog.ReadRuns(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, r := range runs {
			if *scenario != "" && r.Scenario != *scenario {
				continue
			}
			if *failedOnly && r.Passed {
				continue
			}
			fmt.Println(runLine(r))
		}
	}
}

func watchCmd(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	url := fs.String("url", "ws://127.0.0.1:8091/v1/results", "results feed url")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := feed.Dial(ctx, *url)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	for {
		ev, err := c.Next()
		if err == io.EOF {
			fmt.Println("feed closed")
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintln(os.Stderr, "feed:", err)
				os.Exit(1)
			}
			return
		}
		switch ev.Type {
		case feed.TypeHello:
			fmt.Printf("connected as %s\n", ev.SessionID)
		case feed.TypeRunResult:
			if ev.Result != nil {
				fmt.Println(runLine(*ev.Result))
			}
		case feed.TypeSuiteDone:
			fmt.Printf("suite done: %d passed, %d failed\n", ev.Passed, ev.Failed)
			return
		}
	}
}
