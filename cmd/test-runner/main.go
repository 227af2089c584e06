// Package main - test-runner
// Executable to run the in-process soak scenarios.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
	"github.com/MRamiBalles/minesweeper/server/test"
)

func main() {
	games := flag.Int("games", 1000, "Games per scenario")
	verbose := flag.Bool("v", false, "Log every game event")
	flag.Parse()

	fmt.Println("MINESWEEPER - SOAK TEST SUITE")
	fmt.Println(strings.Repeat("=", 60))

	log := logger.NewDiscardLogger()
	if *verbose {
		log = logger.NewLogger()
	}

	soak := test.NewSoakTest(log)
	for _, sc := range test.DefaultScenarios(*games) {
		fmt.Printf("\nRunning %s (%s games)...\n", sc.Name, humanize.Comma(int64(sc.Games)))
		soak.Run(sc)
	}

	// Summary
	passed := 0
	failed := 0

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	for _, r := range soak.GetResults() {
		mark := "PASS"
		if r.Passed {
			passed++
		} else {
			failed++
			mark = "FAIL"
		}
		fmt.Printf("   [%s] %-20s won %-6s lost %-6s moves %-8s %s\n", mark, r.ScenarioName,
			humanize.Comma(int64(r.Won)), humanize.Comma(int64(r.Lost)), humanize.Comma(int64(r.Moves)), r.Reason)
	}
	fmt.Printf("\n   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		os.Exit(1)
	}
}
