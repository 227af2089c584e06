// Package test - soak.go
// Soak run: plays many random games in-process and checks the board
// invariants after every move.
package test

import (
	"fmt"
	"math/rand/v2"

	"github.com/MRamiBalles/minesweeper/server/internal/domain/board"
	"github.com/MRamiBalles/minesweeper/server/internal/engine"
	"github.com/MRamiBalles/minesweeper/server/internal/events"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/metrics"
)

// Scenario is one soak configuration.
type Scenario struct {
	Name      string
	Board     board.Config
	Placement board.Placement
	Games     int
	FlagRatio float64
	Seed      uint64
}

// TestResult captures the outcome of each scenario.
type TestResult struct {
	ScenarioName string
	Games        int
	Won          int
	Lost         int
	Moves        int
	Passed       bool
	Reason       string
}

// DefaultScenarios covers both placements and a cramped board.
func DefaultScenarios(games int) []Scenario {
	return []Scenario{
		{Name: "classic/rejection", Board: board.DefaultConfig(), Placement: board.PlacementRejection, Games: games, FlagRatio: 0.15, Seed: 1},
		{Name: "classic/shuffle", Board: board.DefaultConfig(), Placement: board.PlacementShuffle, Games: games, FlagRatio: 0.15, Seed: 2},
		{Name: "dense 4x4/15", Board: board.Config{Width: 4, Height: 4, Mines: 15}, Placement: board.PlacementShuffle, Games: games, Seed: 3},
		{Name: "wide 30x16/99", Board: board.Config{Width: 30, Height: 16, Mines: 99}, Placement: board.PlacementRejection, Games: games / 10, FlagRatio: 0.05, Seed: 4},
	}
}

// SoakTest plays scenarios against a real engine and journal.
type SoakTest struct {
	logger  *logger.Logger
	results []TestResult
}

// NewSoakTest creates the soak harness.
func NewSoakTest(log *logger.Logger) *SoakTest {
	return &SoakTest{logger: log, results: make([]TestResult, 0)}
}

// Run plays every game of a scenario and records the result.
func (t *SoakTest) Run(sc Scenario) TestResult {
	result := TestResult{ScenarioName: sc.Name, Games: sc.Games}
	rng := rand.New(rand.NewPCG(sc.Seed, sc.Seed^0x9e3779b97f4a7c15))
	eventLog := events.NewEventLog(nil, 0)

	eng, err := engine.NewEngine(engine.Settings{
		Board:     sc.Board,
		Placement: sc.Placement,
		NewSource: func() (board.Source, error) { return rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())), nil },
		SessionID: "SOAK",
		Metrics:   metrics.NewCollector(),
	}, eventLog, t.logger)
	if err != nil {
		result.Reason = err.Error()
		t.results = append(t.results, result)
		return result
	}

	for g := 0; g < sc.Games; g++ {
		if g > 0 {
			if _, err := eng.Initialize(); err != nil {
				result.Reason = err.Error()
				t.results = append(t.results, result)
				return result
			}
		}
		if err := playGame(eng, rng, sc.FlagRatio); err != nil {
			result.Reason = fmt.Sprintf("game %d: %v", g, err)
			t.results = append(t.results, result)
			return result
		}
		if err := checkJournal(eventLog.GetByGame(eng.GameID()), eng); err != nil {
			result.Reason = fmt.Sprintf("game %d: %v", g, err)
			t.results = append(t.results, result)
			return result
		}

		result.Moves += eng.Moves()
		if eng.Status() == board.Won {
			result.Won++
		} else {
			result.Lost++
		}
	}

	result.Passed = true
	result.Reason = "all invariants held"
	t.results = append(t.results, result)
	return result
}

// GetResults returns every scenario result recorded so far.
func (t *SoakTest) GetResults() []TestResult {
	return t.results
}

func playGame(eng *engine.Engine, rng *rand.Rand, flagRatio float64) error {
	for !eng.Status().Terminal() {
		s := eng.Snapshot()
		var hidden, flagged []board.Point
		for y, row := range s.Cells {
			for x, c := range row {
				switch {
				case c.Flagged:
					flagged = append(flagged, board.Point{X: x, Y: y})
				case !c.Revealed:
					hidden = append(hidden, board.Point{X: x, Y: y})
				}
			}
		}
		if len(hidden) == 0 {
			if len(flagged) == 0 {
				return fmt.Errorf("game in progress with every cell open")
			}
			p := flagged[rng.IntN(len(flagged))]
			if err := checkSnapshot(eng.ToggleFlag(p.X, p.Y)); err != nil {
				return err
			}
			continue
		}

		p := hidden[rng.IntN(len(hidden))]
		if rng.Float64() < flagRatio {
			s = eng.ToggleFlag(p.X, p.Y)
			// Take most flags back so the game can still be won.
			if rng.IntN(2) == 0 {
				s = eng.ToggleFlag(p.X, p.Y)
			}
		} else {
			s, _ = eng.Reveal(p.X, p.Y)
		}
		if err := checkSnapshot(s); err != nil {
			return err
		}
	}
	return nil
}

func checkSnapshot(s board.Snapshot) error {
	var hiddenSafe, flags, mines int
	for _, row := range s.Cells {
		for _, c := range row {
			if c.Revealed && c.Flagged {
				return fmt.Errorf("revealed cell is flagged")
			}
			if c.IsMine() {
				mines++
			} else if !c.Revealed {
				hiddenSafe++
			}
			if c.Flagged {
				flags++
			}
		}
	}

	switch {
	case mines != s.Mines:
		return fmt.Errorf("board holds %d mines, want %d", mines, s.Mines)
	case flags != s.Flags:
		return fmt.Errorf("flag count %d, board shows %d", s.Flags, flags)
	case s.Status == board.Won && hiddenSafe != 0:
		return fmt.Errorf("won with %d safe cells hidden", hiddenSafe)
	case s.Status == board.InProgress && hiddenSafe == 0:
		return fmt.Errorf("every safe cell open but game not won")
	case s.Status == board.Lost && s.RevealedCount() != s.Width*s.Height:
		return fmt.Errorf("lost board not fully disclosed")
	case (s.Status == board.Lost) != (s.Detonated != nil):
		return fmt.Errorf("detonated mine %v with status %s", s.Detonated, s.Status)
	}
	return nil
}

func checkJournal(journal []events.GameEvent, eng *engine.Engine) error {
	// GAME_STARTED, one event per move, then the outcome.
	if want := eng.Moves() + 2; len(journal) != want {
		return fmt.Errorf("journal has %d events, want %d", len(journal), want)
	}
	if journal[0].Type != events.EventTypeGameStarted {
		return fmt.Errorf("journal starts with %s", journal[0].Type)
	}
	want := events.EventTypeGameLost
	if eng.Status() == board.Won {
		want = events.EventTypeGameWon
	}
	if last := journal[len(journal)-1].Type; last != want {
		return fmt.Errorf("journal ends with %s, game is %s", last, eng.Status())
	}
	return nil
}
