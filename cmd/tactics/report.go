package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"antsbot.ai/internal/suite"
	"antsbot.ai/internal/tactic"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiDim   = "\x1b[2m"
)

// reporter prints one line per run, like `go test -v`. Colors are only used
// when w is a terminal.
type reporter struct {
	w     io.Writer
	color bool
}

func newReporter(w io.Writer, color bool) *reporter {
	return &reporter{w: w, color: color}
}

func (r *reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

func (r *reporter) list(scenarios []tactic.Scenario) {
	for _, sc := range scenarios {
		doc, _, _ := strings.Cut(sc.Doc, "\n")
		fmt.Fprintf(r.w, "%-22s %s\n", sc.Name, r.paint(ansiDim, doc))
	}
}

func (r *reporter) result(res tactic.Result) {
	took := (time.Duration(res.DurationMs) * time.Millisecond).Seconds()
	if res.Passed {
		fmt.Fprintf(r.w, "--- %s: %s (%.2fs)\n", r.paint(ansiGreen, "PASS"), res.Scenario, took)
		return
	}
	fmt.Fprintf(r.w, "--- %s: %s (%.2fs)\n", r.paint(ansiRed, "FAIL"), res.Scenario, took)
	if res.Error != "" {
		fmt.Fprintf(r.w, "    %s\n", res.Error)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(r.w, "    %s\n", f)
	}
	if res.ArchivePath != "" {
		fmt.Fprintf(r.w, "    replay: %s\n", res.ArchivePath)
	}
}

func (r *reporter) summary(sum suite.Summary, planned int) {
	skipped := planned - sum.Passed - sum.Failed
	verdict := r.paint(ansiGreen, "ok")
	if !sum.OK() || skipped > 0 {
		verdict = r.paint(ansiRed, "FAIL")
	}
	fmt.Fprintf(r.w, "%s\t%d passed, %d failed", verdict, sum.Passed, sum.Failed)
	if skipped > 0 {
		fmt.Fprintf(r.w, ", %d not run", skipped)
	}
	fmt.Fprintln(r.w)
}
