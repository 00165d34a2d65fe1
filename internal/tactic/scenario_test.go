package tactic

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"antsbot.ai/internal/fixture"
	"antsbot.ai/internal/replay"
)

func TestLoadCatalog(t *testing.T) {
	list, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	var names []string
	for _, s := range list {
		names = append(names, s.Name)
		if s.Doc == "" {
			t.Errorf("%s: missing description", s.Name)
		}
		if len(s.Expect.Checks) == 0 {
			t.Errorf("%s: no checks", s.Name)
		}
	}
	want := []string{
		"annihilation",
		"food_three_moves",
		"greedy_annihilation",
		"hill_memory",
		"no_waiting",
		"obstacle_detour",
		"optimal_food",
		"raze_hill",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_Annihilation(t *testing.T) {
	s := mustScenario(t, "annihilation")
	if s.Grid.Rows() != 3 || s.Grid.Cols() != 12 {
		t.Fatalf("dims: got %dx%d want 3x12", s.Grid.Rows(), s.Grid.Cols())
	}
	if s.Turns() != 0 {
		t.Fatalf("turns: got %d want 0 (configured default)", s.Turns())
	}
	pass := &replay.Replay{Status: []string{"survived", "survived"}, Cutoff: replay.CutoffTurnLimit, GameLength: 30}
	if errs := s.Check(pass); len(errs) != 0 {
		t.Fatalf("unexpected failures: %v", errs)
	}
	fail := &replay.Replay{Status: []string{"eaten", "survived"}, Cutoff: replay.CutoffRankStabilized, GameLength: 12}
	if errs := s.Check(fail); len(errs) != 2 {
		t.Fatalf("failures: got %d want 2: %v", len(errs), errs)
	}
}

func TestCatalog_FoodAndRaze(t *testing.T) {
	food := mustScenario(t, "food_three_moves")
	r := &replay.Replay{
		Status: []string{"survived", "survived"},
		Cutoff: replay.CutoffTurnLimit,
		Food:   []replay.FoodEvent{{Row: 1, Col: 5, Turn: 3, Player: 0, Eaten: true}},
	}
	if errs := food.Check(r); len(errs) != 0 {
		t.Fatalf("food_three_moves: %v", errs)
	}

	raze := mustScenario(t, "raze_hill")
	r = &replay.Replay{Status: []string{"survived", "survived"}, Cutoff: replay.CutoffRankStabilized, GameLength: 6}
	if errs := raze.Check(r); len(errs) != 0 {
		t.Fatalf("raze_hill: %v", errs)
	}

	mem := mustScenario(t, "hill_memory")
	if mem.Turns() != 40 {
		t.Fatalf("hill_memory turns: got %d want 40", mem.Turns())
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want error
	}{
		"ragged map": {src: "-- map --\n%%%\n%a%%\n-- expect --\nsurvived 0\n", want: fixture.ErrRaggedGrid},
		"no map":     {src: "-- expect --\nsurvived 0\n"},
		"no expect":  {src: "-- map --\n%a%\n"},
		"stray file": {src: "-- map --\n%a%\n-- expect --\nsurvived 0\n-- notes --\nx\n"},
		"bad expect": {src: "-- map --\n%a%\n-- expect --\nsurvive 0\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(name, []byte(tc.src))
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestLoadDir_MergeAndFilter(t *testing.T) {
	dir := t.TempDir()
	src := "Overrides the built-in.\n-- map --\n%A.*%\n-- expect --\nfood 0 3 eaten 1 by 0\n"
	if err := os.WriteFile(filepath.Join(dir, "annihilation.txtar"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	extra := "New one.\n-- map --\n%A%\n-- expect --\nsurvived 0\n"
	if err := os.WriteFile(filepath.Join(dir, "zz_extra.txtar"), []byte(extra), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	more, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(more) != 2 || more[0].Source != filepath.Join(dir, "annihilation.txtar") {
		t.Fatalf("unexpected dir scenarios: %+v", more)
	}

	base, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	all := Merge(base, more)
	if len(all) != len(base)+1 {
		t.Fatalf("merged: got %d want %d", len(all), len(base)+1)
	}
	if all[0].Doc != "Overrides the built-in." {
		t.Fatalf("override not applied: %q", all[0].Doc)
	}

	got, err := Filter(all, "^(raze|zz)_")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got) != 2 || got[0].Name != "raze_hill" || got[1].Name != "zz_extra" {
		t.Fatalf("filter: got %+v", got)
	}
	if _, err := Filter(all, "("); err == nil {
		t.Fatalf("expected bad pattern error")
	}
}

func mustScenario(t *testing.T, name string) Scenario {
	t.Helper()
	list, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	for _, s := range list {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("scenario %s not in catalog", name)
	return Scenario{}
}
