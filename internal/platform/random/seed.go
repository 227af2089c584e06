// Package random provides seeding helpers for the board's pseudo-random source.
//
// Seeds come from crypto/rand and drive a math/rand/v2 PCG generator. A seed
// determines the mine layout, so seeds are never journaled or sent to clients.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Seed is the state needed to rebuild a PCG generator.
type Seed struct {
	Hi uint64 `json:"hi"`
	Lo uint64 `json:"lo"`
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (Seed, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return Seed{}, fmt.Errorf("read random seed: %w", err)
	}

	return Seed{
		Hi: binary.LittleEndian.Uint64(b[:8]),
		Lo: binary.LittleEndian.Uint64(b[8:]),
	}, nil
}

// Rand returns a PCG generator for the seed.
func (s Seed) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(s.Hi, s.Lo))
}

// NewRand returns a generator from a fresh crypto seed.
func NewRand() (*rand.Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return seed.Rand(), nil
}
