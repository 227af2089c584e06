// Package optimization provides concurrency tuning profiles for the server.
package optimization

import (
	"fmt"
	"runtime"
	"time"
)

// Config holds tuned parameters for a load profile.
type Config struct {
	// Channel buffer sizes
	ClientSendBuffer int

	// Capacity
	MaxSessions    int
	MaxConnections int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Rate limiting
	MaxMessagesPerSecond int

	// Housekeeping
	SweepInterval time.Duration
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		ClientSendBuffer: 16, // a board view per message, rarely more than a few queued

		MaxSessions:    numCPU * 1000,
		MaxConnections: numCPU * 500,

		// SQLite serializes writers; a small pool avoids SQLITE_BUSY storms
		DBMaxOpenConns: 4,
		DBMaxIdleConns: 2,

		MaxMessagesPerSecond: 20, // faster than any human clicks

		SweepInterval: time.Minute,
	}
}

// StressTestConfig returns aggressive settings for stress testing.
func StressTestConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		ClientSendBuffer: 64,

		MaxSessions:    numCPU * 5000,
		MaxConnections: numCPU * 2000,

		DBMaxOpenConns: 8,
		DBMaxIdleConns: 4,

		MaxMessagesPerSecond: 500,

		SweepInterval: 10 * time.Second,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		ClientSendBuffer: 4,

		MaxSessions:    100,
		MaxConnections: 20,

		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,

		MaxMessagesPerSecond: 10,

		SweepInterval: 5 * time.Minute,
	}
}

// ForProfile returns the tuning for a profile name.
func ForProfile(name string) (*Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "stress":
		return StressTestConfig(), nil
	case "low":
		return LowResourceConfig(), nil
	default:
		return nil, fmt.Errorf("unknown tuning profile %q", name)
	}
}
