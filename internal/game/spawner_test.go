package game

import (
	"testing"

	"github.com/rawblock/fishshoot-engine/internal/fp"
)

func testSpecies() map[string]fp.SpeciesConfig {
	return map[string]fp.SpeciesConfig{
		"minnow": {Name: "minnow", Tier: 1, Health: 10, Speed: 1, SpawnWeight: 900},
		"shark":  {Name: "shark", Tier: 5, Health: 500, Speed: 0.3, SpawnWeight: 100},
	}
}

func TestSpawnerDeterministicGivenSeed(t *testing.T) {
	bounds := Bounds{MinX: -50, MaxX: 50, MinZ: -50, MaxZ: 50}
	s1, err := NewSpawner(testSpecies(), bounds, 10)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewSpawner(testSpecies(), bounds, 10)
	if err != nil {
		t.Fatal(err)
	}

	rng1 := NewRNG(42)
	rng2 := NewRNG(42)
	for i := 0; i < 20; i++ {
		a := s1.Spawn(rng1, uint64(i))
		b := s2.Spawn(rng2, uint64(i))
		if a.Species != b.Species || a.X != b.X || a.Z != b.Z || a.VX != b.VX || a.VZ != b.VZ {
			t.Fatalf("spawn %d diverged between identically seeded spawners", i)
		}
	}
}

func TestSpawnerProducesOnlyConfiguredSpecies(t *testing.T) {
	bounds := Bounds{MinX: -50, MaxX: 50, MinZ: -50, MaxZ: 50}
	s, err := NewSpawner(testSpecies(), bounds, 1)
	if err != nil {
		t.Fatal(err)
	}
	rng := NewRNG(7)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		target := s.Spawn(rng, uint64(i))
		seen[target.Species] = true
		if target.Species != "minnow" && target.Species != "shark" {
			t.Fatalf("unexpected species %q", target.Species)
		}
	}
	if !seen["minnow"] {
		t.Fatal("expected to see the dominant-weight species over 200 draws")
	}
}

func TestNewSpawnerRejectsEmptyTable(t *testing.T) {
	if _, err := NewSpawner(nil, Bounds{}, 1); err == nil {
		t.Fatal("expected error for empty species table")
	}
}
