package fixture

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseGrid_TrimsAndDropsBlankLines(t *testing.T) {
	g, err := ParseGrid(`
          %%%%%%%%%%%%
          %a.A%%%%%%B%

          %%%%%%%%%%%%
          `)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	if g.Rows() != 3 || g.Cols() != 12 {
		t.Fatalf("dims: got %dx%d want 3x12", g.Rows(), g.Cols())
	}
	if got := g.Row(1); got != "%a.A%%%%%%B%" {
		t.Fatalf("row 1: got %q", got)
	}
	if got := g.Cell(1, 1); got != 'a' {
		t.Fatalf("cell (1,1): got %q want 'a'", got)
	}
}

func TestParseGrid_RaggedRowsFail(t *testing.T) {
	_, err := ParseGrid(`
		%%%%
		%a.A%
		%%%%`)
	if !errors.Is(err, ErrRaggedGrid) {
		t.Fatalf("expected ErrRaggedGrid, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Fatalf("error should name the offending row: %v", err)
	}
}

func TestParseGrid_Empty(t *testing.T) {
	for _, s := range []string{"", "   \n\n  \t\n"} {
		if _, err := ParseGrid(s); !errors.Is(err, ErrEmptyGrid) {
			t.Fatalf("ParseGrid(%q): expected ErrEmptyGrid, got %v", s, err)
		}
	}
}

func TestGrid_WriteToFormat(t *testing.T) {
	g, err := ParseGrid("%%*%\n%a.%\n%%%%")
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	want := strings.Join([]string{
		"rows 3",
		"cols 4",
		"players 2",
		"m %%*%",
		"m %a.%",
		"m %%%%",
		"",
	}, "\n")
	if diff := cmp.Diff(want, g.String()); diff != "" {
		t.Fatalf("map mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTemp_CleanupRemovesFile(t *testing.T) {
	g, err := ParseGrid("%a%\n%.%")
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	dir := t.TempDir()
	path, cleanup, err := WriteTemp(g, dir)
	if err != nil {
		t.Fatalf("WriteTemp: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read map: %v", err)
	}
	if !strings.HasPrefix(string(b), "rows 2\ncols 3\nplayers 2\n") {
		t.Fatalf("unexpected header: %q", b)
	}

	cleanup()
	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("map file still present after cleanup: %v", err)
	}
}

func TestWriteTemp_ZeroGrid(t *testing.T) {
	if _, cleanup, err := WriteTemp(Grid{}, t.TempDir()); !errors.Is(err, ErrEmptyGrid) {
		t.Fatalf("expected ErrEmptyGrid, got %v", err)
	} else {
		cleanup()
	}
}
