// Package expect parses the small expectation language scenario files use to
// describe what a replay must show. One statement per line:
//
//	# comment
//	cutoff "turn limit reached"
//	survived 0
//	food 1 5 eaten 3 by 0
//	length 6
//	turns 30
package expect

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"antsbot.ai/internal/replay"
	"antsbot.ai/internal/tactic/assert"
)

type File struct {
	Lines []*Line `@@*`
}

// Line holds at most one statement; blank and comment-only lines are empty.
type Line struct {
	Statement *Statement `@@? EOL`
}

type Statement struct {
	Pos lexer.Position

	Cutoff   *string   `  "cutoff" @String`
	Survived *int      `| "survived" @Int`
	Food     *FoodStmt `| @@`
	Length   *int      `| "length" @Int`
	Turns    *int      `| "turns" @Int`
}

// FoodStmt: food <row> <col> eaten <turn> by <player>
type FoodStmt struct {
	Row    int `"food" @Int`
	Col    int `@Int`
	Turn   int `"eaten" @Int`
	Player int `"by" @Int`
}

var expectLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "EOL", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	{Name: "Ident", Pattern: `[a-z_]+`},
})

var parser = participle.MustBuild[File](
	participle.Lexer(expectLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// Check is one expectation over a replay.
type Check struct {
	Line int
	Text string
	fn   func(*replay.Replay) error
}

func (c Check) Eval(r *replay.Replay) error {
	if err := c.fn(r); err != nil {
		return fmt.Errorf("line %d (%s): %w", c.Line, c.Text, err)
	}
	return nil
}

// Expectations is a parsed expectation file.
type Expectations struct {
	Checks []Check
	// Turns is the turn limit requested by a "turns" statement, 0 if none.
	Turns int
}

// Eval runs every check and returns all failures.
func (e Expectations) Eval(r *replay.Replay) []error {
	var errs []error
	for _, c := range e.Checks {
		if err := c.Eval(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Parse parses src; name is used in error positions.
func Parse(name, src string) (Expectations, error) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	f, err := parser.ParseString(name, src)
	if err != nil {
		return Expectations{}, err
	}
	var out Expectations
	for _, ln := range f.Lines {
		st := ln.Statement
		if st == nil {
			continue
		}
		line := st.Pos.Line
		switch {
		case st.Cutoff != nil:
			reason := *st.Cutoff
			out.Checks = append(out.Checks, Check{Line: line, Text: fmt.Sprintf("cutoff %q", reason), fn: func(r *replay.Replay) error {
				return assert.Cutoff(r, reason)
			}})
		case st.Survived != nil:
			player := *st.Survived
			if player < 0 {
				return Expectations{}, fmt.Errorf("%s:%d: negative player %d", name, line, player)
			}
			out.Checks = append(out.Checks, Check{Line: line, Text: fmt.Sprintf("survived %d", player), fn: func(r *replay.Replay) error {
				return assert.Survived(r, player)
			}})
		case st.Food != nil:
			fs := *st.Food
			out.Checks = append(out.Checks, Check{Line: line, Text: fmt.Sprintf("food %d %d eaten %d by %d", fs.Row, fs.Col, fs.Turn, fs.Player), fn: func(r *replay.Replay) error {
				return assert.FoodEaten(r, fs.Row, fs.Col, fs.Turn, fs.Player)
			}})
		case st.Length != nil:
			n := *st.Length
			out.Checks = append(out.Checks, Check{Line: line, Text: fmt.Sprintf("length %d", n), fn: func(r *replay.Replay) error {
				return assert.GameLength(r, n)
			}})
		case st.Turns != nil:
			if *st.Turns <= 0 {
				return Expectations{}, fmt.Errorf("%s:%d: turns must be positive", name, line)
			}
			out.Turns = *st.Turns
		}
	}
	if len(out.Checks) == 0 {
		return Expectations{}, fmt.Errorf("%s: no expectations", name)
	}
	return out, nil
}

// String renders the checks back in source form.
func (e Expectations) String() string {
	lines := make([]string, 0, len(e.Checks)+1)
	if e.Turns > 0 {
		lines = append(lines, fmt.Sprintf("turns %d", e.Turns))
	}
	for _, c := range e.Checks {
		lines = append(lines, c.Text)
	}
	return strings.Join(lines, "\n")
}
