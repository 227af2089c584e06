package main

import (
	"math/rand/v2"
	"testing"

	"github.com/MRamiBalles/minesweeper/server/internal/domain/board"
	"github.com/MRamiBalles/minesweeper/server/internal/network"
	"github.com/MRamiBalles/minesweeper/server/internal/view"
)

func gameView(status board.Status, states ...string) *view.GameView {
	row := make([]view.CellView, len(states))
	for i, s := range states {
		row[i] = view.CellView{State: s}
	}
	return &view.GameView{Width: len(states), Height: 1, Status: status, Cells: [][]view.CellView{row}}
}

func TestNextActionLiftsFlagWhenNothingIsHidden(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	v := gameView(board.InProgress, "revealed", "flagged", "revealed", "flagged")

	for i := 0; i < 20; i++ {
		a := nextAction(rng, v, 0.5)
		if a.Type != network.ActionFlag || v.Cells[a.Y][a.X].State != "flagged" {
			t.Fatalf("action = %+v, want FLAG on a flagged cell", a)
		}
	}
}

func TestNextAction(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))

	if a := nextAction(rng, gameView(board.Lost, "mine", "revealed"), 0); a.Type != network.ActionNewGame {
		t.Errorf("finished game: %+v", a)
	}
	if a := nextAction(rng, gameView(board.InProgress, "revealed", "revealed"), 0); a.Type != network.ActionNewGame {
		t.Errorf("no playable cell: %+v", a)
	}
	a := nextAction(rng, gameView(board.InProgress, "revealed", "hidden", "flagged"), 0)
	if a.Type != network.ActionReveal || a.X != 1 || a.Y != 0 {
		t.Errorf("reveal = %+v, want REVEAL (1,0)", a)
	}
}
