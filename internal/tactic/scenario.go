// Package tactic defines tactical scenarios: a small map, a description and
// the replay facts the bot is expected to produce on it.
package tactic

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/tools/txtar"

	"antsbot.ai/internal/fixture"
	"antsbot.ai/internal/replay"
	"antsbot.ai/internal/tactic/expect"
)

//go:embed scenarios/*.txtar
var builtin embed.FS

type Scenario struct {
	Name   string
	Doc    string
	Grid   fixture.Grid
	Expect expect.Expectations
	Source string
}

// Turns is the scenario's own turn limit, or 0 to use the configured one.
func (s Scenario) Turns() int { return s.Expect.Turns }

// Check evaluates every expectation against r and returns all failures.
func (s Scenario) Check(r *replay.Replay) []error {
	return s.Expect.Eval(r)
}

// Parse reads a scenario archive. The archive comment is the description;
// the "map" file holds the grid and the "expect" file the expectations.
func Parse(name string, data []byte) (Scenario, error) {
	ar := txtar.Parse(data)
	s := Scenario{
		Name:   name,
		Doc:    strings.TrimSpace(string(ar.Comment)),
		Source: name,
	}
	var mapSrc, expectSrc []byte
	for _, f := range ar.Files {
		switch f.Name {
		case "map":
			mapSrc = f.Data
		case "expect":
			expectSrc = f.Data
		default:
			return Scenario{}, fmt.Errorf("scenario %s: unexpected file %q", name, f.Name)
		}
	}
	if mapSrc == nil {
		return Scenario{}, fmt.Errorf("scenario %s: missing map", name)
	}
	if expectSrc == nil {
		return Scenario{}, fmt.Errorf("scenario %s: missing expect", name)
	}

	g, err := fixture.ParseGrid(string(mapSrc))
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", name, err)
	}
	s.Grid = g

	e, err := expect.Parse(name+"/expect", string(expectSrc))
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", name, err)
	}
	s.Expect = e
	return s, nil
}

// LoadCatalog returns the built-in scenarios sorted by name.
func LoadCatalog() ([]Scenario, error) {
	sub, err := fs.Sub(builtin, "scenarios")
	if err != nil {
		return nil, err
	}
	return loadFS(sub)
}

// LoadDir loads every *.txtar scenario in dir.
func LoadDir(dir string) ([]Scenario, error) {
	out, err := loadFS(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Source = filepath.Join(dir, out[i].Name+".txtar")
	}
	return out, nil
}

func loadFS(fsys fs.FS) ([]Scenario, error) {
	names, err := fs.Glob(fsys, "*.txtar")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Scenario, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(fsys, n)
		if err != nil {
			return nil, err
		}
		s, err := Parse(strings.TrimSuffix(n, ".txtar"), b)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Merge appends extra to base; a scenario in extra replaces a base scenario
// of the same name.
func Merge(base, extra []Scenario) []Scenario {
	idx := make(map[string]int, len(base))
	out := append([]Scenario(nil), base...)
	for i, s := range out {
		idx[s.Name] = i
	}
	for _, s := range extra {
		if i, ok := idx[s.Name]; ok {
			out[i] = s
			continue
		}
		idx[s.Name] = len(out)
		out = append(out, s)
	}
	return out
}

// Filter keeps scenarios whose name matches pattern. An empty pattern keeps
// everything.
func Filter(list []Scenario, pattern string) ([]Scenario, error) {
	if pattern == "" {
		return list, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("scenario filter: %w", err)
	}
	var out []Scenario
	for _, s := range list {
		if re.MatchString(s.Name) {
			out = append(out, s)
		}
	}
	return out, nil
}
