package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
)

const sample = `{
  "challenge": "ants",
  "status": ["survived", "eaten"],
  "playernames": ["MyBot", "TestBot"],
  "game_length": 6,
  "replaydata": {
    "cutoff": "rank stabilized",
    "rows": 3, "cols": 12,
    "food": [[1, 4, 0, 3, 0], [1, 8, 0], [2, 2, 1, null, null], [2, 5, 0, 6]]
  }
}`

func TestDecode_TypedFields(t *testing.T) {
	r, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.GameLength != 6 {
		t.Fatalf("game_length: got %d want 6", r.GameLength)
	}
	if r.Cutoff != CutoffRankStabilized {
		t.Fatalf("cutoff: got %q", r.Cutoff)
	}
	want := []FoodEvent{
		{Row: 1, Col: 4, SpawnTurn: 0, EndTurn: 3, Turn: 3, Player: 0, Eaten: true},
		{Row: 1, Col: 8, SpawnTurn: 0, EndTurn: -1, Turn: -1, Player: -1},
		{Row: 2, Col: 2, SpawnTurn: 1, EndTurn: -1, Turn: -1, Player: -1},
		{Row: 2, Col: 5, SpawnTurn: 0, EndTurn: 6, Turn: -1, Player: -1},
	}
	if diff := cmp.Diff(want, r.Food); diff != "" {
		t.Fatalf("food mismatch (-want +got):\n%s", diff)
	}
	if st, ok := r.PlayerStatus(1); !ok || st != "eaten" {
		t.Fatalf("status[1]: got %q ok=%v", st, ok)
	}
	if _, ok := r.PlayerStatus(2); ok {
		t.Fatalf("expected no status for player 2")
	}
	if len(r.Raw) == 0 {
		t.Fatalf("raw bytes not kept")
	}
}

func TestDecode_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"missing status":   `{"game_length": 1, "replaydata": {"cutoff": "x"}}`,
		"missing cutoff":   `{"status": [], "game_length": 1, "replaydata": {}}`,
		"string length":    `{"status": [], "game_length": "6", "replaydata": {"cutoff": "x"}}`,
		"short food event": `{"status": [], "game_length": 1, "replaydata": {"cutoff": "x", "food": [[1, 2]]}}`,
		"status not text":  `{"status": [1], "game_length": 1, "replaydata": {"cutoff": "x"}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestFindFood_FirstMatch(t *testing.T) {
	r := &Replay{Food: []FoodEvent{
		{Row: 1, Col: 1, Turn: 2, Player: 1, Eaten: true},
		{Row: 1, Col: 1, Turn: 9, Player: 0, Eaten: true},
	}}
	f, ok := r.FindFood(1, 1)
	if !ok || f.Turn != 2 {
		t.Fatalf("FindFood: got %+v ok=%v", f, ok)
	}
	if _, ok := r.FindFood(0, 0); ok {
		t.Fatalf("expected miss")
	}
}

func TestReadFile_PlainAndZstd(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "0.replay")
	if err := os.WriteFile(plain, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	packed := filepath.Join(dir, "0.replay.zst")
	if err := os.WriteFile(packed, enc.EncodeAll([]byte(sample), nil), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = enc.Close()

	for _, p := range []string{plain, packed} {
		r, err := ReadFile(p)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", filepath.Base(p), err)
		}
		if r.GameLength != 6 || len(r.Food) != 4 {
			t.Fatalf("%s: unexpected replay %+v", filepath.Base(p), r)
		}
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "0.replay"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
