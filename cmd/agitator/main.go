// Package main - agitator
// Load generator: simulates concurrent players clicking through games over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/minesweeper/server/internal/domain/board"
	"github.com/MRamiBalles/minesweeper/server/internal/network"
	"github.com/MRamiBalles/minesweeper/server/internal/view"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	FlagRatio      float64
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Errors           int64
	GamesWon         int64
	GamesLost        int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

func main() {
	// Parse flags
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	flagRatio := flag.Float64("flags", 0.1, "Share of moves that toggle a flag instead of revealing")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		FlagRatio:      *flagRatio,
	}

	fmt.Println("=========================================")
	fmt.Println("AGITATOR - Minesweeper load generator")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	// Setup graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	started := time.Now()
	stats := runStressTest(ctx, config)

	printResults(stats, config, time.Since(started))
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\nStarting clients...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("All %d clients started\n\n", config.NumClients)

	// Progress updates
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: sent=%s recv=%s won=%d lost=%d errors=%d\n",
					humanize.Comma(atomic.LoadInt64(&stats.MessagesSent)),
					humanize.Comma(atomic.LoadInt64(&stats.MessagesReceived)),
					atomic.LoadInt64(&stats.GamesWon),
					atomic.LoadInt64(&stats.GamesLost),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	current, err := readState(conn)
	if err != nil {
		log.Printf("Client %d: no initial state: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	atomic.AddInt64(&stats.MessagesReceived, 1)

	rng := rand.New(rand.NewPCG(uint64(clientID), uint64(time.Now().UnixNano())))

	// Send actions at configured interval
	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			action := nextAction(rng, current, config.FlagRatio)
			start := time.Now()

			if err := conn.WriteJSON(action); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesSent, 1)

			next, err := readState(conn)
			if err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, time.Since(start))
			stats.mu.Unlock()

			if !current.Status.Terminal() {
				switch next.Status {
				case board.Won:
					atomic.AddInt64(&stats.GamesWon, 1)
				case board.Lost:
					atomic.AddInt64(&stats.GamesLost, 1)
				}
			}
			current = next
		}
	}
}

// readState waits for the next board, skipping feed announcements.
func readState(conn *websocket.Conn) (*view.GameView, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg network.ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, err
		}
		switch msg.Type {
		case network.MessageState:
			return msg.View, nil
		case network.MessageError:
			return nil, fmt.Errorf("server error: %s", msg.Error)
		}
	}
}

// nextAction plays a random hidden cell, or starts over once the game is done.
func nextAction(rng *rand.Rand, v *view.GameView, flagRatio float64) network.PlayerAction {
	if v.Status.Terminal() {
		return network.PlayerAction{Type: network.ActionNewGame}
	}

	var hidden, flagged []board.Point
	for y, row := range v.Cells {
		for x, c := range row {
			switch c.State {
			case "hidden":
				hidden = append(hidden, board.Point{X: x, Y: y})
			case "flagged":
				flagged = append(flagged, board.Point{X: x, Y: y})
			}
		}
	}
	if len(hidden) == 0 {
		if len(flagged) == 0 {
			return network.PlayerAction{Type: network.ActionNewGame}
		}
		// Every unopened cell is flagged; lift one so the game can finish.
		p := flagged[rng.IntN(len(flagged))]
		return network.PlayerAction{Type: network.ActionFlag, X: p.X, Y: p.Y}
	}

	p := hidden[rng.IntN(len(hidden))]
	if rng.Float64() < flagRatio {
		return network.PlayerAction{Type: network.ActionFlag, X: p.X, Y: p.Y}
	}
	return network.PlayerAction{Type: network.ActionReveal, X: p.X, Y: p.Y}
}

func printResults(stats *Stats, config Config, elapsed time.Duration) {
	fmt.Println("\n=========================================")
	fmt.Println("STRESS TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)
	won := atomic.LoadInt64(&stats.GamesWon)
	lost := atomic.LoadInt64(&stats.GamesLost)

	fmt.Printf("Messages Sent:     %s\n", humanize.Comma(sent))
	fmt.Printf("Messages Received: %s\n", humanize.Comma(recv))
	fmt.Printf("Games Won/Lost:    %d/%d\n", won, lost)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	// Calculate throughput
	throughput := float64(sent) / elapsed.Seconds()
	fmt.Printf("Throughput:        %s msg/sec\n", humanize.CommafWithDigits(throughput, 2))

	// Latency stats
	var p50, p99 time.Duration
	if len(stats.Latencies) > 0 {
		sort.Slice(stats.Latencies, func(i, j int) bool { return stats.Latencies[i] < stats.Latencies[j] })
		p50 = stats.Latencies[len(stats.Latencies)/2]
		p99 = stats.Latencies[len(stats.Latencies)*99/100]

		fmt.Printf("\nRound-trip latency:\n")
		fmt.Printf("  Min: %v\n", stats.Latencies[0])
		fmt.Printf("  P50: %v\n", p50)
		fmt.Printf("  P99: %v\n", p99)
		fmt.Printf("  Max: %v\n", stats.Latencies[len(stats.Latencies)-1])
	}

	// Verdict
	fmt.Println("\n-----------------------------------------")
	if errs == 0 {
		fmt.Println("TEST PASSED: System handled the load")
	} else if float64(errs)/float64(sent+1) < 0.05 {
		fmt.Println("TEST WARNING: Some errors detected")
	} else {
		fmt.Println("TEST FAILED: High error rate")
	}
	fmt.Println("=========================================")

	// Export results as JSON
	results := map[string]interface{}{
		"messages_sent":      sent,
		"messages_received":  recv,
		"errors":             errs,
		"games_won":          won,
		"games_lost":         lost,
		"throughput_per_sec": throughput,
		"latency_p50_ms":     float64(p50) / 1e6,
		"latency_p99_ms":     float64(p99) / 1e6,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile("stress_test_results.json", jsonData, 0644); err != nil {
		log.Printf("Failed to save results: %v", err)
		return
	}
	fmt.Println("\nResults saved to stress_test_results.json")
}
