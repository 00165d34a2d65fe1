// Package replay decodes the JSON replay playgame writes after a game.
package replay

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Status and cutoff strings as written by the engine.
const (
	StatusSurvived = "survived"

	CutoffTurnLimit      = "turn limit reached"
	CutoffRankStabilized = "rank stabilized"
)

//go:embed replay.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Replay holds the fields the harness asserts on. Everything else the engine
// writes stays available in Raw.
type Replay struct {
	Status     []string    `json:"status"`
	GameLength int         `json:"game_length"`
	Cutoff     string      `json:"-"`
	Food       []FoodEvent `json:"-"`

	Raw json.RawMessage `json:"-"`
}

// FoodEvent is one entry of replaydata.food: [row, col, spawn_turn,
// end_turn, player]. Food still on the map or destroyed has no player and
// Eaten false; fields the engine omitted are -1.
type FoodEvent struct {
	Row       int
	Col       int
	SpawnTurn int
	// EndTurn is the turn the food left the map, whoever took it.
	EndTurn int
	// Turn and Player are set only for food an ant collected.
	Turn   int
	Player int
	Eaten  bool
}

func (f *FoodEvent) UnmarshalJSON(b []byte) error {
	var cells []*int
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}
	if len(cells) < 3 || cells[0] == nil || cells[1] == nil || cells[2] == nil {
		return fmt.Errorf("food event %s: want at least [row, col, spawn_turn]", b)
	}
	*f = FoodEvent{Row: *cells[0], Col: *cells[1], SpawnTurn: *cells[2], EndTurn: -1, Turn: -1, Player: -1}
	if len(cells) >= 4 && cells[3] != nil {
		f.EndTurn = *cells[3]
	}
	if len(cells) >= 5 && cells[3] != nil && cells[4] != nil {
		f.Turn = *cells[3]
		f.Player = *cells[4]
		f.Eaten = true
	}
	return nil
}

type wireReplay struct {
	Status     []string `json:"status"`
	GameLength int      `json:"game_length"`
	ReplayData struct {
		Cutoff string      `json:"cutoff"`
		Food   []FoodEvent `json:"food"`
	} `json:"replaydata"`
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("replay.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("replay.schema.json")
	})
	return schema, schemaErr
}

// Validate checks b against the embedded replay schema without decoding it
// into a Replay.
func Validate(b []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile replay schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	return nil
}

// Decode validates b and decodes it.
func Decode(b []byte) (*Replay, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}
	var w wireReplay
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return &Replay{
		Status:     w.Status,
		GameLength: w.GameLength,
		Cutoff:     w.ReplayData.Cutoff,
		Food:       w.ReplayData.Food,
		Raw:        append(json.RawMessage(nil), b...),
	}, nil
}

// ReadFile reads and decodes a replay. Paths ending in .zst are zstd
// compressed archive copies.
func ReadFile(path string) (*Replay, error) {
	b, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}
	r, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ReadRaw returns the replay bytes at path, decompressing .zst files.
func ReadRaw(path string) ([]byte, error) {
	if !strings.HasSuffix(path, ".zst") {
		return os.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// FindFood returns the first food event at (row, col).
func (r *Replay) FindFood(row, col int) (FoodEvent, bool) {
	for _, f := range r.Food {
		if f.Row == row && f.Col == col {
			return f, true
		}
	}
	return FoodEvent{}, false
}

// PlayerStatus returns the status string of player, or false if the replay
// has no such player.
func (r *Replay) PlayerStatus(player int) (string, bool) {
	if player < 0 || player >= len(r.Status) {
		return "", false
	}
	return r.Status[player], true
}
