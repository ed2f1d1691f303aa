// Package game implements the authoritative simulation: the fixed-tick loop,
// swept line-circle collision, projectile/target lifecycle, and
// contribution-based reward attribution (spec.md §4.5). Positions and
// velocities are float64 — kinematics is the one place spec.md §3 allows
// floating point, since rounding there is not outcome-bearing. Every
// monetary or probability quantity a Target/Room touches on the way to a
// payout still flows through internal/rtp's fixed-point engine.
package game

// Target is a live fish in a room (spec.md §3 "Target (fish)").
type Target struct {
	ID     uint32
	Tier   int
	Species string

	X, Z         float64
	VX, VZ       float64
	PrevX, PrevZ float64
	Rotation     float64
	SizeScale    float64

	HP, MaxHP int

	DamageByPlayer map[string]int
	LastHitBy      string

	spawnTick uint64
}

// Alive reports whether the target still has hit points.
func (t *Target) Alive() bool { return t.HP > 0 }

// TotalDamage sums DamageByPlayer for kill attribution (spec.md §4.5.2).
func (t *Target) TotalDamage() int {
	total := 0
	for _, d := range t.DamageByPlayer {
		total += d
	}
	return total
}

// Projectile is a live bullet in a room (spec.md §3 "Projectile").
type Projectile struct {
	ID       uint32
	OwnerID  string
	Weapon   string
	Damage   int
	CostFP   int64

	X, Z         float64
	PrevX, PrevZ float64
	VX, VZ       float64

	SpawnTick uint64
	HasHit    bool
}

// Bounds is the room's playable rectangle plus an out-of-bounds margin for
// despawning (spec.md §4.5 step 1/2).
type Bounds struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
	Margin     float64
}

// Contains reports whether (x, z) is within bounds, inclusive of the margin.
func (b Bounds) Contains(x, z float64) bool {
	return x >= b.MinX-b.Margin && x <= b.MaxX+b.Margin &&
		z >= b.MinZ-b.Margin && z <= b.MaxZ+b.Margin
}

// KillAttribution is the per-player share of a kill reward, ordered by
// damage descending then player id ascending (spec.md §4.5.2).
type KillAttribution struct {
	PlayerID string
	Damage   int
	ShareFP  int64
}

// DeathEvent is emitted when a target's hp drops to or below zero: the
// target id, tier, and the full contributor list attributed by damage.
type DeathEvent struct {
	Target       *Target
	Attributions []KillAttribution
}

// HitEvent is emitted on a swept-collision hit, before RTP resolution: which
// bullet hit which target, and whether that hit killed it.
type HitEvent struct {
	Bullet *Projectile
	Target *Target
}
