package board

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// countingSource counts draws so placement cost can be asserted.
type countingSource struct {
	src   Source
	draws int
}

func (c *countingSource) IntN(n int) int {
	c.draws++
	return c.src.IntN(n)
}

// wallLayout puts a mine wall on column 3 plus two mines in the bottom-right
// corner. Columns 0-1 are a zero region bordered by the numbered column 2.
func wallLayout() []Point {
	mines := make([]Point, 0, DefaultMines)
	for y := 0; y < DefaultHeight; y++ {
		mines = append(mines, Point{X: 3, Y: y})
	}
	return append(mines, Point{X: 6, Y: 6}, Point{X: 7, Y: 7})
}

func mustBoard(t *testing.T, mines []Point) *Board {
	t.Helper()
	b, err := NewWithMines(DefaultConfig(), mines)
	if err != nil {
		t.Fatalf("NewWithMines: %v", err)
	}
	return b
}

func bruteAdjacency(s Snapshot, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if c, ok := s.Cell(x+dx, y+dy); ok && c.IsMine() {
				n++
			}
		}
	}
	return n
}

func TestNewPlacesExactMinesWithCorrectAdjacency(t *testing.T) {
	for _, placement := range []Placement{PlacementRejection, PlacementShuffle} {
		for seed := uint64(1); seed <= 200; seed++ {
			b, err := New(DefaultConfig(), seeded(seed), placement)
			if err != nil {
				t.Fatalf("%s seed %d: %v", placement, seed, err)
			}
			s := b.Snapshot()

			mines := 0
			for y := 0; y < s.Height; y++ {
				for x := 0; x < s.Width; x++ {
					c := s.Cells[y][x]
					if c.Revealed || c.Flagged {
						t.Fatalf("%s seed %d: fresh cell (%d,%d) not hidden", placement, seed, x, y)
					}
					if c.IsMine() {
						mines++
						continue
					}
					if want := bruteAdjacency(s, x, y); c.Adjacency != want {
						t.Fatalf("%s seed %d: adjacency at (%d,%d) = %d, want %d", placement, seed, x, y, c.Adjacency, want)
					}
				}
			}
			if mines != DefaultMines {
				t.Fatalf("%s seed %d: %d mines, want %d", placement, seed, mines, DefaultMines)
			}
			if s.Status != InProgress {
				t.Fatalf("%s seed %d: status %s", placement, seed, s.Status)
			}
		}
	}
}

func TestNewIsDeterministicForSeed(t *testing.T) {
	a, _ := New(DefaultConfig(), seeded(42), PlacementRejection)
	b, _ := New(DefaultConfig(), seeded(42), PlacementRejection)
	if !reflect.DeepEqual(a.Mines(), b.Mines()) {
		t.Errorf("same seed produced different layouts: %v vs %v", a.Mines(), b.Mines())
	}
}

func TestShufflePlacementDrawsOncePerMine(t *testing.T) {
	src := &countingSource{src: seeded(7)}
	if _, err := New(DefaultConfig(), src, PlacementShuffle); err != nil {
		t.Fatalf("New: %v", err)
	}
	if src.draws != DefaultMines {
		t.Errorf("draws = %d, want %d", src.draws, DefaultMines)
	}
}

func TestInvalidConfiguration(t *testing.T) {
	cases := []Config{
		{Width: 8, Height: 8, Mines: 0},
		{Width: 8, Height: 8, Mines: -1},
		{Width: 8, Height: 8, Mines: 64},
		{Width: 8, Height: 8, Mines: 65},
		{Width: 0, Height: 8, Mines: 1},
		{Width: 8, Height: -2, Mines: 1},
	}
	for _, cfg := range cases {
		if _, err := New(cfg, seeded(1), PlacementRejection); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("New(%+v) error = %v, want ErrInvalidConfiguration", cfg, err)
		}
	}

	if _, err := New(Config{Width: 3, Height: 3, Mines: 8}, seeded(1), PlacementShuffle); err != nil {
		t.Errorf("8 mines on 9 cells should be valid: %v", err)
	}
}

func TestNewWithMinesRejectsBadLayouts(t *testing.T) {
	dup := wallLayout()
	dup[9] = dup[0]
	outside := wallLayout()
	outside[9] = Point{X: 8, Y: 0}

	for name, layout := range map[string][]Point{
		"duplicate":    dup,
		"out of range": outside,
		"short":        wallLayout()[:9],
	} {
		if _, err := NewWithMines(DefaultConfig(), layout); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: error = %v, want ErrInvalidConfiguration", name, err)
		}
	}
}

func TestRevealZeroRegionFloodsToNumberedBorder(t *testing.T) {
	b := mustBoard(t, wallLayout())

	res := b.Reveal(0, 0)
	if res.Status != InProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", res.Status)
	}
	if len(res.Revealed) != 24 {
		t.Fatalf("revealed %d cells, want 24", len(res.Revealed))
	}

	s := b.Snapshot()
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			c := s.Cells[y][x]
			wantRevealed := x <= 2
			if c.Revealed != wantRevealed {
				t.Errorf("(%d,%d) revealed = %v, want %v", x, y, c.Revealed, wantRevealed)
			}
			if x == 2 && c.Adjacency == 0 {
				t.Errorf("border cell (2,%d) should be numbered", y)
			}
		}
	}
}

func TestRevealNumberedCellDoesNotPropagate(t *testing.T) {
	b := mustBoard(t, wallLayout())

	res := b.Reveal(2, 4)
	if len(res.Revealed) != 1 || res.Revealed[0] != (Point{X: 2, Y: 4}) {
		t.Fatalf("revealed %v, want only (2,4)", res.Revealed)
	}
}

func TestRevealIsIdempotent(t *testing.T) {
	b := mustBoard(t, wallLayout())
	b.Reveal(2, 4)
	before := b.Snapshot()

	res := b.Reveal(2, 4)
	if res.Changed() {
		t.Errorf("second reveal changed %v", res.Revealed)
	}
	if !reflect.DeepEqual(before, b.Snapshot()) {
		t.Error("second reveal mutated the board")
	}
}

func TestRevealOutOfRangeIsNoop(t *testing.T) {
	b := mustBoard(t, wallLayout())
	before := b.Snapshot()

	for _, p := range []Point{{-1, 0}, {0, -1}, {8, 0}, {0, 8}, {100, 100}} {
		if res := b.Reveal(p.X, p.Y); res.Changed() || res.Status != InProgress {
			t.Errorf("Reveal(%d,%d) = %+v, want no-op", p.X, p.Y, res)
		}
		if b.ToggleFlag(p.X, p.Y) {
			t.Errorf("ToggleFlag(%d,%d) changed state", p.X, p.Y)
		}
	}
	if !reflect.DeepEqual(before, b.Snapshot()) {
		t.Error("out-of-range calls mutated the board")
	}
}

func TestFlaggedCellIsNotRevealed(t *testing.T) {
	b := mustBoard(t, wallLayout())

	if !b.ToggleFlag(0, 0) {
		t.Fatal("flag on hidden cell should change state")
	}
	if res := b.Reveal(0, 0); res.Changed() {
		t.Fatalf("reveal of flagged cell revealed %v", res.Revealed)
	}
	c, _ := b.Cell(0, 0)
	if c.Revealed || !c.Flagged {
		t.Errorf("cell = %+v, want hidden and flagged", c)
	}
}

func TestFloodFillSkipsFlaggedCells(t *testing.T) {
	b := mustBoard(t, wallLayout())
	b.ToggleFlag(1, 3)

	res := b.Reveal(0, 0)
	if len(res.Revealed) != 23 {
		t.Fatalf("revealed %d cells, want 23", len(res.Revealed))
	}
	c, _ := b.Cell(1, 3)
	if c.Revealed || !c.Flagged {
		t.Errorf("flagged cell = %+v, want hidden and flagged", c)
	}

	seen := make(map[Point]bool)
	for _, p := range res.Revealed {
		if seen[p] {
			t.Fatalf("cell %v revealed twice", p)
		}
		seen[p] = true
	}
}

func TestToggleFlagOnlyOnHiddenCells(t *testing.T) {
	b := mustBoard(t, wallLayout())
	b.Reveal(2, 0)

	if b.ToggleFlag(2, 0) {
		t.Error("flag toggled on a revealed cell")
	}
	if !b.ToggleFlag(5, 5) || !b.ToggleFlag(5, 5) {
		t.Error("toggle on hidden cell should flip twice")
	}
	if c, _ := b.Cell(5, 5); c.Flagged {
		t.Error("double toggle should leave cell unflagged")
	}
	if s := b.Snapshot(); s.Flags != 0 || s.MinesRemaining() != DefaultMines {
		t.Errorf("flags = %d remaining = %d", s.Flags, s.MinesRemaining())
	}
}

func TestRevealMineDisclosesBoardAndLoses(t *testing.T) {
	b, err := New(DefaultConfig(), seeded(99), PlacementRejection)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mine := b.Mines()[0]

	var flagged Point
	for y := 0; y < DefaultHeight; y++ {
		for x := 0; x < DefaultWidth; x++ {
			if c, _ := b.Cell(x, y); !c.IsMine() {
				flagged = Point{X: x, Y: y}
			}
		}
	}
	b.ToggleFlag(flagged.X, flagged.Y)

	res := b.Reveal(mine.X, mine.Y)
	if res.Status != Lost || b.Status() != Lost {
		t.Fatalf("status = %s, want LOST", res.Status)
	}
	if res.Revealed[0] != mine {
		t.Errorf("first revealed = %v, want the detonated mine %v", res.Revealed[0], mine)
	}

	s := b.Snapshot()
	if got := s.RevealedCount(); got != DefaultWidth*DefaultHeight {
		t.Errorf("revealed %d cells, want all 64", got)
	}
	for y := range s.Cells {
		for x, c := range s.Cells[y] {
			if c.Flagged {
				t.Errorf("(%d,%d) still flagged after loss", x, y)
			}
		}
	}
	if s.Detonated == nil || *s.Detonated != mine {
		t.Errorf("detonated = %v, want %v", s.Detonated, mine)
	}
	if len(s.FlaggedAtEnd) != 1 || s.FlaggedAtEnd[0] != flagged {
		t.Errorf("flagged at end = %v, want [%v]", s.FlaggedAtEnd, flagged)
	}
}

func TestTerminalStateRejectsMoves(t *testing.T) {
	b := mustBoard(t, wallLayout())
	b.Reveal(3, 0)
	before := b.Snapshot()

	if res := b.Reveal(0, 0); res.Changed() || res.Status != Lost {
		t.Errorf("reveal after loss = %+v", res)
	}
	if b.ToggleFlag(0, 0) {
		t.Error("flag accepted after loss")
	}
	if !reflect.DeepEqual(before, b.Snapshot()) {
		t.Error("terminal board mutated")
	}
}

func TestRevealingEverySafeCellWins(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		b, err := New(DefaultConfig(), seeded(seed), PlacementShuffle)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		var last RevealResult
		for y := 0; y < DefaultHeight; y++ {
			for x := 0; x < DefaultWidth; x++ {
				c, _ := b.Cell(x, y)
				if c.IsMine() || c.Revealed {
					continue
				}
				if b.Status() != InProgress {
					t.Fatalf("seed %d: status %s with (%d,%d) still hidden", seed, b.Status(), x, y)
				}
				last = b.Reveal(x, y)
			}
		}

		if last.Status != Won || b.Status() != Won {
			t.Fatalf("seed %d: final status %s, want WON", seed, last.Status)
		}
		s := b.Snapshot()
		if got, want := s.RevealedCount(), DefaultWidth*DefaultHeight-DefaultMines; got != want {
			t.Errorf("seed %d: revealed %d, want %d", seed, got, want)
		}
		for _, m := range b.Mines() {
			if c, _ := b.Cell(m.X, m.Y); c.Revealed {
				t.Errorf("seed %d: mine %v revealed on a won board", seed, m)
			}
		}
	}
}

// referenceRegion is the recursive flood fill the worklist replaces.
func referenceRegion(s Snapshot, x, y int, seen map[Point]bool) {
	c, ok := s.Cell(x, y)
	p := Point{X: x, Y: y}
	if !ok || seen[p] || c.Flagged || c.IsMine() {
		return
	}
	seen[p] = true
	if c.Adjacency != 0 {
		return
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			referenceRegion(s, x+dx, y+dy, seen)
		}
	}
}

func TestFloodFillMatchesRecursiveReference(t *testing.T) {
	for seed := uint64(1); seed <= 100; seed++ {
		b, _ := New(DefaultConfig(), seeded(seed), PlacementRejection)
		s := b.Snapshot()

		start, found := Point{}, false
		for y := 0; y < s.Height && !found; y++ {
			for x := 0; x < s.Width && !found; x++ {
				if s.Cells[y][x].Adjacency == 0 {
					start, found = Point{X: x, Y: y}, true
				}
			}
		}
		if !found {
			continue
		}

		want := make(map[Point]bool)
		referenceRegion(s, start.X, start.Y, want)

		res := b.Reveal(start.X, start.Y)
		if len(res.Revealed) != len(want) {
			t.Fatalf("seed %d: revealed %d cells, reference %d", seed, len(res.Revealed), len(want))
		}
		for _, p := range res.Revealed {
			if !want[p] {
				t.Fatalf("seed %d: %v revealed outside the reference region", seed, p)
			}
		}
	}
}

func TestVisualOf(t *testing.T) {
	cases := []struct {
		cell Cell
		want Visual
	}{
		{Cell{Adjacency: 2}, VisualHidden},
		{Cell{Adjacency: Mine}, VisualHidden},
		{Cell{Adjacency: 0, Flagged: true}, VisualFlagged},
		{Cell{Adjacency: 0, Revealed: true}, VisualRevealed},
		{Cell{Adjacency: 3, Revealed: true}, VisualRevealed},
		{Cell{Adjacency: Mine, Revealed: true}, VisualMine},
	}
	for _, tc := range cases {
		if got := VisualOf(tc.cell); got != tc.want {
			t.Errorf("VisualOf(%+v) = %s, want %s", tc.cell, got, tc.want)
		}
	}
}

func TestParsePlacement(t *testing.T) {
	for in, want := range map[string]Placement{"": PlacementRejection, "Rejection": PlacementRejection, " shuffle ": PlacementShuffle} {
		got, err := ParsePlacement(in)
		if err != nil || got != want {
			t.Errorf("ParsePlacement(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParsePlacement("spiral"); err == nil {
		t.Error("expected error for unknown placement")
	}
}
