// Package assert holds the replay checks tactic scenarios are built from.
// Every check is pure: it inspects an already decoded replay and returns nil
// on success.
package assert

import (
	"errors"
	"fmt"

	"antsbot.ai/internal/replay"
)

var (
	ErrNoPlayer     = errors.New("no such player")
	ErrNoFood       = errors.New("no food at that location")
	ErrFoodMismatch = errors.New("food eaten differently")
	ErrCutoff       = errors.New("unexpected cutoff")
	ErrGameLength   = errors.New("unexpected game length")
	ErrNotSurvived  = errors.New("player did not survive")
)

// Survived passes iff status[player] is "survived".
func Survived(r *replay.Replay, player int) error {
	st, ok := r.PlayerStatus(player)
	if !ok {
		return fmt.Errorf("%w: player %d, replay has %d", ErrNoPlayer, player, len(r.Status))
	}
	if st != replay.StatusSurvived {
		return fmt.Errorf("%w: player %d status = %q, want %q", ErrNotSurvived, player, st, replay.StatusSurvived)
	}
	return nil
}

// FoodEaten looks up the first food event at (row, col) and checks who ate it
// and when. A coordinate with no food event at all is reported as ErrNoFood,
// distinct from ErrFoodMismatch.
func FoodEaten(r *replay.Replay, row, col, turn, player int) error {
	f, ok := r.FindFood(row, col)
	if !ok {
		return fmt.Errorf("%w: (%d, %d)", ErrNoFood, row, col)
	}
	if !f.Eaten {
		return fmt.Errorf("%w: food at (%d, %d) was never eaten, want turn %d by player %d", ErrFoodMismatch, row, col, turn, player)
	}
	if f.Turn != turn {
		return fmt.Errorf("%w: food at (%d, %d) eaten on turn %d, want turn %d", ErrFoodMismatch, row, col, f.Turn, turn)
	}
	if f.Player != player {
		return fmt.Errorf("%w: food at (%d, %d) eaten by player %d, want player %d", ErrFoodMismatch, row, col, f.Player, player)
	}
	return nil
}

func Cutoff(r *replay.Replay, reason string) error {
	if r.Cutoff != reason {
		return fmt.Errorf("%w: got %q, want %q", ErrCutoff, r.Cutoff, reason)
	}
	return nil
}

func GameLength(r *replay.Replay, turns int) error {
	if r.GameLength != turns {
		return fmt.Errorf("%w: got %d turns, want %d", ErrGameLength, r.GameLength, turns)
	}
	return nil
}
