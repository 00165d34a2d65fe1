package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const replayExt = ".replay.zst"

type ReplayMeta struct {
	RunID      string `json:"run_id"`
	Scenario   string `json:"scenario"`
	Passed     bool   `json:"passed"`
	Cutoff     string `json:"cutoff,omitempty"`
	GameLength int    `json:"game_length"`
	Replay     string `json:"replay"`
	CreatedAt  string `json:"created_at"`
	RawBytes   int    `json:"raw_bytes"`
}

// ReplayArchive keeps compressed copies of engine replays under
// `dir/<scenario>/<run_id>.replay.zst`, each next to a `<run_id>.meta.json`.
type ReplayArchive struct {
	dir string
}

func NewReplayArchive(dir string) *ReplayArchive {
	return &ReplayArchive{dir: dir}
}

func (a *ReplayArchive) Dir() string { return a.dir }

// Store compresses raw into the archive and returns the archived path.
func (a *ReplayArchive) Store(meta ReplayMeta, raw []byte) (string, error) {
	if err := checkName(meta.Scenario); err != nil {
		return "", err
	}
	if err := checkName(meta.RunID); err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("archive %s/%s: empty replay", meta.Scenario, meta.RunID)
	}

	dir := filepath.Join(a.dir, meta.Scenario)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, meta.RunID+replayExt)
	if err := writeZstd(dst, raw); err != nil {
		return "", err
	}

	meta.Replay = filepath.Base(dst)
	meta.RawBytes = len(raw)
	if meta.CreatedAt == "" {
		meta.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err == nil {
		err = writeAtomic(filepath.Join(dir, meta.RunID+".meta.json"), func(w io.Writer) error {
			_, err := w.Write(b)
			return err
		})
	}
	if err != nil {
		// A replay without its meta file is not listed as archived.
		_ = os.Remove(dst)
		return "", fmt.Errorf("archive %s/%s: meta: %w", meta.Scenario, meta.RunID, err)
	}
	return dst, nil
}

// Latest returns the most recently written replay for scenario.
func (a *ReplayArchive) Latest(scenario string) (string, error) {
	if err := checkName(scenario); err != nil {
		return "", err
	}
	dir := filepath.Join(a.dir, scenario)
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	type entry struct {
		path string
		mod  time.Time
	}
	var found []entry
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), replayExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, entry{path: filepath.Join(dir, e.Name()), mod: info.ModTime()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no archived replays for %s: %w", scenario, os.ErrNotExist)
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].mod.Equal(found[j].mod) {
			return found[i].path < found[j].path
		}
		return found[i].mod.Before(found[j].mod)
	})
	return found[len(found)-1].path, nil
}

func checkName(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("archive: invalid name %q", s)
	}
	return nil
}

func writeZstd(dst string, raw []byte) error {
	return writeAtomic(dst, func(w io.Writer) error {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if _, err := enc.Write(raw); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	})
}

// writeAtomic writes through a temp file in dst's directory and renames it
// into place, so dst is either complete or absent.
func writeAtomic(dst string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
