package game

import (
	"fmt"
	"math"
	"sort"

	"github.com/rawblock/fishshoot-engine/internal/fp"
)

// Spawner generates deterministic target spawns from a room's seeded RNG and
// the immutable species table (spec.md §4.5.3). The exact sampling family is
// left as "an implementation choice" by spec.md — this is cumulative-weight
// sampling over spawn_weight, the simplest choice consistent with that text.
type Spawner struct {
	species      []fp.SpeciesConfig
	cumWeights   []int64
	totalWeight  int64
	bounds       Bounds
	speedFactor  float64
	nextTargetID uint32
}

// NewSpawner builds a Spawner over the given species table. speedFactor
// scales every species' base Speed into a world-space velocity magnitude.
func NewSpawner(species map[string]fp.SpeciesConfig, bounds Bounds, speedFactor float64) (*Spawner, error) {
	if len(species) == 0 {
		return nil, fmt.Errorf("game: species table must be non-empty")
	}
	names := make([]string, 0, len(species))
	for name := range species {
		names = append(names, name)
	}
	// Species are ordered by name before building the cumulative-weight
	// table so that two rooms sharing a seed spawn identical sequences
	// regardless of Go's randomized map iteration order (spec.md §4.5.3,
	// §5 "deterministic given a room seed").
	sort.Strings(names)

	s := &Spawner{bounds: bounds, speedFactor: speedFactor}
	var cum int64
	for _, name := range names {
		sp := species[name]
		if sp.SpawnWeight <= 0 {
			continue
		}
		s.species = append(s.species, sp)
		cum += sp.SpawnWeight
		s.cumWeights = append(s.cumWeights, cum)
	}
	if cum == 0 {
		return nil, fmt.Errorf("game: no species carries a positive spawn_weight")
	}
	s.totalWeight = cum
	return s, nil
}

// pick selects one species by cumulative-weight sampling over draw, a value
// in [0, totalWeight).
func (s *Spawner) pick(draw int64) fp.SpeciesConfig {
	for i, cum := range s.cumWeights {
		if draw < cum {
			return s.species[i]
		}
	}
	return s.species[len(s.species)-1]
}

// Spawn produces one new Target: a species sampled by weight, an entry edge,
// a destination edge, and a velocity vector scaled by speedFactor (spec.md
// §4.5.3).
func (s *Spawner) Spawn(rng *RNG, tick uint64) *Target {
	draw := int64(rng.Uint64() % uint64(s.totalWeight))
	species := s.pick(draw)

	entryX, entryZ := s.edgePoint(rng)
	destX, destZ := s.edgePoint(rng)

	dx := destX - entryX
	dz := destZ - entryZ
	dist := math.Hypot(dx, dz)
	speed := species.Speed * s.speedFactor
	var vx, vz float64
	if dist > 0 {
		vx = dx / dist * speed
		vz = dz / dist * speed
	}

	s.nextTargetID++
	return &Target{
		ID:             s.nextTargetID,
		Tier:           species.Tier,
		Species:        species.Name,
		X:              entryX,
		Z:              entryZ,
		PrevX:          entryX,
		PrevZ:          entryZ,
		VX:             vx,
		VZ:             vz,
		Rotation:       math.Atan2(vz, vx),
		SizeScale:      species.Size,
		HP:             species.Health,
		MaxHP:          species.Health,
		DamageByPlayer: make(map[string]int),
		spawnTick:      tick,
	}
}

// edgePoint picks a uniformly random point on the bounding rectangle's
// perimeter, used for both the entry and destination edges.
func (s *Spawner) edgePoint(rng *RNG) (float64, float64) {
	width := s.bounds.MaxX - s.bounds.MinX
	height := s.bounds.MaxZ - s.bounds.MinZ
	perimeter := 2 * (width + height)
	if perimeter <= 0 {
		return s.bounds.MinX, s.bounds.MinZ
	}
	d := rng.Float64() * perimeter
	switch {
	case d < width:
		return s.bounds.MinX + d, s.bounds.MinZ
	case d < width+height:
		return s.bounds.MaxX, s.bounds.MinZ + (d - width)
	case d < 2*width+height:
		return s.bounds.MaxX - (d - width - height), s.bounds.MaxZ
	default:
		return s.bounds.MinX, s.bounds.MaxZ - (d - 2*width - height)
	}
}
