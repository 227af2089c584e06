package board

import "fmt"

// Status is the derived state of a game.
type Status int

const (
	InProgress Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "IN_PROGRESS"
	case Won:
		return "WON"
	case Lost:
		return "LOST"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "IN_PROGRESS":
		*s = InProgress
	case "WON":
		*s = Won
	case "LOST":
		*s = Lost
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Terminal reports whether the status accepts no further moves.
func (s Status) Terminal() bool {
	return s == Won || s == Lost
}

// RevealResult describes the effect of a single Reveal call.
type RevealResult struct {
	Revealed []Point // cells newly revealed by this call, in reveal order
	Status   Status
}

// Changed reports whether the call revealed anything.
func (r RevealResult) Changed() bool {
	return len(r.Revealed) > 0
}

// Status derives the game status from the board.
func (b *Board) Status() Status {
	switch {
	case b.detonated != nil:
		return Lost
	case b.hiddenSafe == 0:
		return Won
	default:
		return InProgress
	}
}

// Reveal opens the cell at (x, y).
//
// Out-of-range coordinates, revealed or flagged cells and finished games are
// no-ops. Opening a mine discloses the whole board and loses the game.
// Opening a cell with no adjacent mines flood-fills its zero region and the
// numbered cells bordering it.
func (b *Board) Reveal(x, y int) RevealResult {
	if !b.InBounds(x, y) || b.Status().Terminal() {
		return RevealResult{Status: b.Status()}
	}

	c := b.cells[b.index(x, y)]
	if c.Revealed || c.Flagged {
		return RevealResult{Status: b.Status()}
	}

	if c.IsMine() {
		return RevealResult{Revealed: b.detonate(Point{X: x, Y: y}), Status: Lost}
	}
	return RevealResult{Revealed: b.flood(x, y), Status: b.Status()}
}

// flood reveals (x, y) and, through an explicit worklist, every unflagged
// cell reachable across zero-adjacency cells. Each cell is revealed at most once.
func (b *Board) flood(x, y int) []Point {
	var revealed []Point
	var buf [8]Point

	stack := []Point{{X: x, Y: y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := &b.cells[b.index(p.X, p.Y)]
		if c.Revealed || c.Flagged {
			continue
		}
		c.Revealed = true
		b.hiddenSafe--
		revealed = append(revealed, p)

		if c.Adjacency != 0 {
			continue
		}
		for _, n := range b.neighbors(p.X, p.Y, buf[:0]) {
			nc := b.cells[b.index(n.X, n.Y)]
			if !nc.Revealed && !nc.Flagged {
				stack = append(stack, n)
			}
		}
	}
	return revealed
}

// detonate reveals every cell after the mine at p was opened.
// Flags are cleared so no revealed cell stays flagged; their positions are
// kept for renderers that want to draw them over the disclosed board.
func (b *Board) detonate(p Point) []Point {
	b.detonated = &p

	revealed := []Point{p}
	b.cells[b.index(p.X, p.Y)].Revealed = true

	for i := range b.cells {
		c := &b.cells[i]
		at := Point{X: i % b.width, Y: i / b.width}
		if c.Flagged {
			c.Flagged = false
			b.flags--
			b.flaggedAtEnd = append(b.flaggedAtEnd, at)
		}
		if c.Revealed {
			continue
		}
		c.Revealed = true
		if !c.IsMine() {
			b.hiddenSafe--
		}
		revealed = append(revealed, at)
	}
	return revealed
}

// ToggleFlag flips the flag on a hidden cell of a game in progress.
// It reports whether the flag changed.
func (b *Board) ToggleFlag(x, y int) bool {
	if !b.InBounds(x, y) || b.Status().Terminal() {
		return false
	}

	c := &b.cells[b.index(x, y)]
	if c.Revealed {
		return false
	}

	c.Flagged = !c.Flagged
	if c.Flagged {
		b.flags++
	} else {
		b.flags--
	}
	return true
}
