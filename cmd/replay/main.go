package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"antsbot.ai/internal/persistence/archive"
	"antsbot.ai/internal/replay"
)

func main() {
	var (
		replayPath = flag.String("replay", "", "path to a replay (0.replay or archived .replay.zst)")
		archiveDir = flag.String("archive", "./data/replays", "replay archive directory (used with -latest)")
		latest     = flag.String("latest", "", "inspect the newest archived replay of this scenario")
		schemaOnly = flag.Bool("schema_only", false, "only validate against the replay schema")
		noFood     = flag.Bool("no_food", false, "omit the food event table")
	)
	flag.Parse()

	path := *replayPath
	switch {
	case path != "" && *latest != "":
		fmt.Fprintln(os.Stderr, "use either -replay or -latest")
		os.Exit(2)
	case *latest != "":
		p, err := archive.NewReplayArchive(*archiveDir).Latest(*latest)
		if err != nil {
			fmt.Fprintln(os.Stderr, "archive:", err)
			os.Exit(1)
		}
		path = p
	case path == "":
		fmt.Fprintln(os.Stderr, "missing -replay or -latest")
		os.Exit(2)
	}

	raw, err := replay.ReadRaw(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read replay:", err)
		os.Exit(1)
	}
	if *schemaOnly {
		if err := replay.Validate(raw); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("replay ok: %s\n", path)
		return
	}

	r, err := replay.Decode(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printSummary(os.Stdout, path, r, !*noFood)
}

func printSummary(w io.Writer, path string, r *replay.Replay, food bool) {
	eaten := 0
	for _, f := range r.Food {
		if f.Eaten {
			eaten++
		}
	}
	fmt.Fprintf(w, "replay %s: game_length=%d cutoff=%q players=%d food=%d eaten=%d\n",
		path, r.GameLength, r.Cutoff, len(r.Status), len(r.Food), eaten)
	for i, st := range r.Status {
		fmt.Fprintf(w, "  player %d: %s\n", i, st)
	}
	if !food || len(r.Food) == 0 {
		return
	}
	fmt.Fprintln(w, "  food (row col spawn -> turn player):")
	for _, f := range r.Food {
		if !f.Eaten {
			if f.EndTurn >= 0 {
				fmt.Fprintf(w, "    %3d %3d %4d -> uneaten, gone on %d\n", f.Row, f.Col, f.SpawnTurn, f.EndTurn)
				continue
			}
			fmt.Fprintf(w, "    %3d %3d %4d -> uneaten\n", f.Row, f.Col, f.SpawnTurn)
			continue
		}
		fmt.Fprintf(w, "    %3d %3d %4d -> %4d %d\n", f.Row, f.Col, f.SpawnTurn, f.Turn, f.Player)
	}
}
