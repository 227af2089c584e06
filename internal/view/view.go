// Package view renders board snapshots for clients.
//
// Hidden cells never carry their adjacency, so a client cannot read the mine
// layout out of a response.
package view

import "github.com/MRamiBalles/minesweeper/server/internal/domain/board"

// CellView is one cell as a client draws it.
type CellView struct {
	State string `json:"state"`           // hidden, flagged, revealed or mine
	Count int    `json:"count,omitempty"` // adjacent mines, revealed safe cells only
}

// GameView is the full board as a client draws it.
type GameView struct {
	SessionID      string        `json:"session_id,omitempty"`
	GameID         string        `json:"game_id"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	Status         board.Status  `json:"status"`
	MinesRemaining int           `json:"mines_remaining"`
	Cells          [][]CellView  `json:"cells"`
	Detonated      *board.Point  `json:"detonated,omitempty"`
	FlaggedAtEnd   []board.Point `json:"flagged_at_end,omitempty"`
}

// New renders a snapshot.
func New(sessionID, gameID string, s board.Snapshot) GameView {
	v := GameView{
		SessionID:      sessionID,
		GameID:         gameID,
		Width:          s.Width,
		Height:         s.Height,
		Status:         s.Status,
		MinesRemaining: s.MinesRemaining(),
		Cells:          make([][]CellView, s.Height),
		Detonated:      s.Detonated,
		FlaggedAtEnd:   s.FlaggedAtEnd,
	}

	for y, row := range s.Cells {
		v.Cells[y] = make([]CellView, len(row))
		for x, c := range row {
			visual := board.VisualOf(c)
			cv := CellView{State: visual.String()}
			if visual == board.VisualRevealed {
				cv.Count = c.Adjacency
			}
			v.Cells[y][x] = cv
		}
	}
	return v
}
