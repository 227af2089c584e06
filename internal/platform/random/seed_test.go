package random

import "testing"

func TestSeedRandIsReproducible(t *testing.T) {
	seed, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}

	a, b := seed.Rand(), seed.Rand()
	for i := 0; i < 32; i++ {
		if x, y := a.IntN(64), b.IntN(64); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestNewSeedVaries(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct seeds, got %+v twice", a)
	}
}
