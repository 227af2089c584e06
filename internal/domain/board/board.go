// Package board is the Minesweeper board engine: mine placement, adjacency
// counts, flood-fill reveal and win/loss detection over a fixed grid.
// This package is PURE and must NOT import any infrastructure packages.
package board

import (
	"errors"
	"fmt"
	"strings"
)

// Classic board dimensions served to players.
const (
	DefaultWidth  = 8
	DefaultHeight = 8
	DefaultMines  = 10
)

// Mine is the adjacency sentinel stored in a cell that holds a mine.
const Mine = -1

// ErrInvalidConfiguration is returned when a board cannot be generated from a Config.
var ErrInvalidConfiguration = errors.New("invalid board configuration")

// Config describes the grid size and the number of mines to place.
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Mines  int `json:"mines"`
}

// DefaultConfig returns the 8x8, 10-mine configuration.
func DefaultConfig() Config {
	return Config{Width: DefaultWidth, Height: DefaultHeight, Mines: DefaultMines}
}

// Validate reports whether mines can be placed on the configured grid.
// At least one mine and one safe cell are required, otherwise placement
// would never terminate or the game would be won before it starts.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidConfiguration, c.Width, c.Height)
	}
	if c.Mines <= 0 || c.Mines >= c.Width*c.Height {
		return fmt.Errorf("%w: %d mines on %d cells", ErrInvalidConfiguration, c.Mines, c.Width*c.Height)
	}
	return nil
}

// Point is a grid coordinate. X is the column, Y is the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Cell is one grid position.
type Cell struct {
	Adjacency int  `json:"adjacency"` // Mine, or the number of mines among the 8 neighbors
	Revealed  bool `json:"revealed"`
	Flagged   bool `json:"flagged"`
}

// IsMine reports whether the cell holds a mine.
func (c Cell) IsMine() bool {
	return c.Adjacency == Mine
}

// Source is the random source used for mine placement.
// *math/rand/v2.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// Placement selects the mine placement algorithm.
type Placement int

const (
	// PlacementRejection draws random cells and skips the ones already mined.
	PlacementRejection Placement = iota
	// PlacementShuffle takes the first mines of a partial Fisher-Yates shuffle.
	// It always consumes exactly one draw per mine.
	PlacementShuffle
)

func (p Placement) String() string {
	switch p {
	case PlacementRejection:
		return "rejection"
	case PlacementShuffle:
		return "shuffle"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// ParsePlacement maps a placement name to its Placement.
func ParsePlacement(name string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rejection":
		return PlacementRejection, nil
	case "shuffle":
		return PlacementShuffle, nil
	default:
		return 0, fmt.Errorf("unknown mine placement %q", name)
	}
}

// Board is a grid of cells with a fixed mine layout.
// A Board is not safe for concurrent use.
type Board struct {
	width  int
	height int
	mines  int
	cells  []Cell // row-major

	hiddenSafe   int
	flags        int
	detonated    *Point
	flaggedAtEnd []Point
}

// New generates a board with a random mine layout drawn from src.
func New(cfg Config, src Source, placement Placement) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("board: nil random source")
	}

	b := newEmpty(cfg)
	switch placement {
	case PlacementRejection:
		b.placeRejection(src)
	case PlacementShuffle:
		b.placeShuffled(src)
	default:
		return nil, fmt.Errorf("board: unsupported %s", placement)
	}
	return b, nil
}

// NewWithMines builds a board with mines at exactly the given points.
func NewWithMines(cfg Config, mines []Point) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(mines) != cfg.Mines {
		return nil, fmt.Errorf("%w: layout has %d mines, want %d", ErrInvalidConfiguration, len(mines), cfg.Mines)
	}

	b := newEmpty(cfg)
	for _, p := range mines {
		if !b.InBounds(p.X, p.Y) {
			return nil, fmt.Errorf("%w: mine (%d,%d) out of range", ErrInvalidConfiguration, p.X, p.Y)
		}
		i := b.index(p.X, p.Y)
		if b.cells[i].IsMine() {
			return nil, fmt.Errorf("%w: duplicate mine (%d,%d)", ErrInvalidConfiguration, p.X, p.Y)
		}
		b.setMine(i)
	}
	return b, nil
}

func newEmpty(cfg Config) *Board {
	return &Board{
		width:      cfg.Width,
		height:     cfg.Height,
		mines:      cfg.Mines,
		cells:      make([]Cell, cfg.Width*cfg.Height),
		hiddenSafe: cfg.Width*cfg.Height - cfg.Mines,
	}
}

func (b *Board) placeRejection(src Source) {
	total := len(b.cells)
	for placed := 0; placed < b.mines; {
		i := src.IntN(total)
		if b.cells[i].IsMine() {
			continue
		}
		b.setMine(i)
		placed++
	}
}

func (b *Board) placeShuffled(src Source) {
	total := len(b.cells)
	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	for i := 0; i < b.mines; i++ {
		j := i + src.IntN(total-i)
		order[i], order[j] = order[j], order[i]
		b.setMine(order[i])
	}
}

// setMine marks cell i as a mine and bumps the count of its non-mine neighbors.
func (b *Board) setMine(i int) {
	b.cells[i].Adjacency = Mine

	var buf [8]Point
	for _, n := range b.neighbors(i%b.width, i/b.width, buf[:0]) {
		c := &b.cells[b.index(n.X, n.Y)]
		if !c.IsMine() {
			c.Adjacency++
		}
	}
}

// neighbors appends the in-range Moore neighbors of (x, y) to buf.
func (b *Board) neighbors(x, y int, buf []Point) []Point {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if nx, ny := x+dx, y+dy; b.InBounds(nx, ny) {
				buf = append(buf, Point{X: nx, Y: ny})
			}
		}
	}
	return buf
}

func (b *Board) index(x, y int) int {
	return y*b.width + x
}

// InBounds reports whether (x, y) lies on the grid.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Config returns the configuration the board was generated from.
func (b *Board) Config() Config {
	return Config{Width: b.width, Height: b.height, Mines: b.mines}
}

// Cell returns the cell at (x, y).
func (b *Board) Cell(x, y int) (Cell, bool) {
	if !b.InBounds(x, y) {
		return Cell{}, false
	}
	return b.cells[b.index(x, y)], true
}

// Mines returns the mine positions in row-major order.
func (b *Board) Mines() []Point {
	mines := make([]Point, 0, b.mines)
	for i, c := range b.cells {
		if c.IsMine() {
			mines = append(mines, Point{X: i % b.width, Y: i / b.width})
		}
	}
	return mines
}
