package view

import (
	"encoding/json"
	"testing"

	"github.com/MRamiBalles/minesweeper/server/internal/domain/board"
)

// Mines on the left column; (7,7) is far from all of them.
func testBoard(t *testing.T) *board.Board {
	t.Helper()
	var mines []board.Point
	for y := 0; y < 8; y++ {
		mines = append(mines, board.Point{X: 0, Y: y})
	}
	mines = append(mines, board.Point{X: 7, Y: 0}, board.Point{X: 7, Y: 1})

	b, err := board.NewWithMines(board.DefaultConfig(), mines)
	if err != nil {
		t.Fatalf("NewWithMines: %v", err)
	}
	return b
}

func TestHiddenCellsCarryNoCount(t *testing.T) {
	b := testBoard(t)
	v := New("S1", "G1", b.Snapshot())

	for y, row := range v.Cells {
		for x, c := range row {
			if c.State != "hidden" || c.Count != 0 {
				t.Fatalf("cell (%d,%d) = %+v on a fresh board", x, y, c)
			}
		}
	}
	if v.MinesRemaining != 10 || v.Status != board.InProgress {
		t.Errorf("view header = %+v", v)
	}
}

func TestRevealedAndFlaggedStates(t *testing.T) {
	b := testBoard(t)
	b.ToggleFlag(0, 0)
	b.Reveal(1, 4) // borders three mines in column 0

	v := New("S1", "G1", b.Snapshot())
	if got := v.Cells[0][0]; got.State != "flagged" {
		t.Errorf("(0,0) = %+v, want flagged", got)
	}
	if got := v.Cells[4][1]; got.State != "revealed" || got.Count != 3 {
		t.Errorf("(1,4) = %+v, want revealed with count 3", got)
	}
	if v.MinesRemaining != 9 {
		t.Errorf("MinesRemaining = %d, want 9", v.MinesRemaining)
	}
}

func TestLostBoardShowsMines(t *testing.T) {
	b := testBoard(t)
	b.ToggleFlag(0, 1)
	b.Reveal(0, 3)

	v := New("S1", "G1", b.Snapshot())
	if v.Status != board.Lost {
		t.Fatalf("status = %v, want LOST", v.Status)
	}
	for y := 0; y < 8; y++ {
		if got := v.Cells[y][0].State; got != "mine" {
			t.Errorf("(0,%d) = %s, want mine", y, got)
		}
	}
	if v.Detonated == nil || *v.Detonated != (board.Point{X: 0, Y: 3}) {
		t.Errorf("Detonated = %v", v.Detonated)
	}
	if len(v.FlaggedAtEnd) != 1 || v.FlaggedAtEnd[0] != (board.Point{X: 0, Y: 1}) {
		t.Errorf("FlaggedAtEnd = %v", v.FlaggedAtEnd)
	}
}

func TestJSONShape(t *testing.T) {
	v := New("S1", "G1", testBoard(t).Snapshot())
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded GameView
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Status != board.InProgress || decoded.Width != 8 || len(decoded.Cells) != 8 {
		t.Errorf("decoded = %+v", decoded)
	}

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	if raw["status"] != "IN_PROGRESS" {
		t.Errorf("status encoded as %v", raw["status"])
	}
}
