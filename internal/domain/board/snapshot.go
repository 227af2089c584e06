package board

// Snapshot is an immutable copy of a board, safe to hand to a renderer.
type Snapshot struct {
	Width  int
	Height int
	Mines  int
	Status Status
	Flags  int
	Cells  [][]Cell // indexed [y][x]

	// Detonated is the mine that lost the game, nil otherwise.
	Detonated *Point
	// FlaggedAtEnd lists the cells that were flagged when the game was lost.
	FlaggedAtEnd []Point
}

// Snapshot copies the current board state.
func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		Width:  b.width,
		Height: b.height,
		Mines:  b.mines,
		Status: b.Status(),
		Flags:  b.flags,
		Cells:  make([][]Cell, b.height),
	}
	for y := 0; y < b.height; y++ {
		row := make([]Cell, b.width)
		copy(row, b.cells[y*b.width:(y+1)*b.width])
		s.Cells[y] = row
	}
	if b.detonated != nil {
		p := *b.detonated
		s.Detonated = &p
	}
	if len(b.flaggedAtEnd) > 0 {
		s.FlaggedAtEnd = append([]Point(nil), b.flaggedAtEnd...)
	}
	return s
}

// Cell returns the cell at (x, y).
func (s Snapshot) Cell(x, y int) (Cell, bool) {
	if x < 0 || x >= s.Width || y < 0 || y >= s.Height {
		return Cell{}, false
	}
	return s.Cells[y][x], true
}

// RevealedCount returns the number of revealed cells.
func (s Snapshot) RevealedCount() int {
	n := 0
	for _, row := range s.Cells {
		for _, c := range row {
			if c.Revealed {
				n++
			}
		}
	}
	return n
}

// MinesRemaining is the mine count minus the placed flags.
func (s Snapshot) MinesRemaining() int {
	return s.Mines - s.Flags
}

// Visual is how a renderer should draw a cell.
type Visual int

const (
	VisualHidden Visual = iota
	VisualFlagged
	VisualRevealed // empty or numbered
	VisualMine
)

func (v Visual) String() string {
	switch v {
	case VisualFlagged:
		return "flagged"
	case VisualRevealed:
		return "revealed"
	case VisualMine:
		return "mine"
	default:
		return "hidden"
	}
}

// VisualOf maps a cell to its visual state using only Revealed, Flagged and Adjacency.
func VisualOf(c Cell) Visual {
	switch {
	case c.Revealed && c.IsMine():
		return VisualMine
	case c.Revealed:
		return VisualRevealed
	case c.Flagged:
		return VisualFlagged
	default:
		return VisualHidden
	}
}
