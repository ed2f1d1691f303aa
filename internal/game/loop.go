package game

import (
	"sort"
	"time"
)

// TickRate and BroadcastRate are the fixed simulation and network cadences
// from spec.md §4.5.
const (
	TickRate      = 60
	BroadcastRate = 20

	tickDuration      = time.Second / TickRate
	ticksPerBroadcast = TickRate / BroadcastRate

	// MaxCatchUpTicks bounds how many simulation ticks one wall-clock
	// iteration may run, so a stalled process cannot spiral into an
	// unbounded catch-up burst (spec.md §4.5 "catch-up cap").
	MaxCatchUpTicks = 8
)

// DefaultBulletLifetime and DefaultBoundsMargin are defaults callers may
// override per room (RoomConfig.BulletLifetime, Bounds.Margin); they are not fixed by spec.md, only named as lifecycle triggers.
const (
	DefaultBulletLifetime = 3 * time.Second
	DefaultBoundsMargin   = 2.0
)

// RoomConfig bounds the spawn cadence and target cap for one room.
type RoomConfig struct {
	MaxTargets    int
	SpawnEveryN   uint64 // spawn at most one target every N ticks
	BulletLifetime time.Duration
	BulletRadius   float64
	BaseRadius     float64
}

// Room is one running simulation: the fixed-tick authoritative state for a
// single room's targets, projectiles, and tick counter (spec.md §4.5). A
// Room is a single logical actor — callers must not mutate it from more than
// one goroutine concurrently (spec.md §5).
type Room struct {
	cfg    RoomConfig
	bounds Bounds
	spawner *Spawner
	rng     *RNG

	Tick uint64

	Targets     map[uint32]*Target
	Projectiles map[uint32]*Projectile

	nextBulletID uint32
}

// NewRoom constructs a Room bound to a spawner and bounds.
func NewRoom(cfg RoomConfig, bounds Bounds, spawner *Spawner, seed uint64) *Room {
	return &Room{
		cfg:         cfg,
		bounds:      bounds,
		spawner:     spawner,
		rng:         NewRNG(seed),
		Targets:     make(map[uint32]*Target),
		Projectiles: make(map[uint32]*Projectile),
	}
}

// SpawnBullet admits a new projectile into the room, returning its assigned
// id. Admission (rate limiting, cost deduction) happens in internal/anticheat
// and internal/session before this is called.
func (r *Room) SpawnBullet(ownerID, weapon string, damage int, costFP int64, x, z, vx, vz float64) *Projectile {
	r.nextBulletID++
	b := &Projectile{
		ID:        r.nextBulletID,
		OwnerID:   ownerID,
		Weapon:    weapon,
		Damage:    damage,
		CostFP:    costFP,
		X:         x,
		Z:         z,
		PrevX:     x,
		PrevZ:     z,
		VX:        vx,
		VZ:        vz,
		SpawnTick: r.Tick,
	}
	r.Projectiles[b.ID] = b
	return b
}

// Step advances the simulation by one fixed tick: target and projectile
// kinematics, collision, spawn pass, and returns the hits and deaths
// resolved this tick so the caller can run RTP resolution and emit packets
// (spec.md §4.5 "Update order within a tick").
func (r *Room) Step(dt float64) ([]HitEvent, []*Target) {
	r.Tick++
	bulletLifetime := r.cfg.BulletLifetime
	if bulletLifetime <= 0 {
		bulletLifetime = DefaultBulletLifetime
	}

	r.advanceTargets(dt)
	r.advanceProjectiles(dt, bulletLifetime)
	hits := r.collide()
	var died []*Target
	for _, h := range hits {
		if !h.Target.Alive() {
			died = append(died, h.Target)
		}
	}
	for _, t := range died {
		delete(r.Targets, t.ID)
	}
	r.spawnPass()
	return hits, died
}

// IsBroadcastTick reports whether this tick falls on the 20 Hz network
// boundary (spec.md §4.5 step 6).
func (r *Room) IsBroadcastTick() bool {
	return r.Tick%ticksPerBroadcast == 0
}

func (r *Room) advanceTargets(dt float64) {
	for id, t := range r.Targets {
		t.PrevX, t.PrevZ = t.X, t.Z
		t.X += t.VX * dt
		t.Z += t.VZ * dt
		if !r.bounds.Contains(t.X, t.Z) {
			delete(r.Targets, id)
		}
	}
}

func (r *Room) advanceProjectiles(dt float64, lifetime time.Duration) {
	maxAgeTicks := uint64(lifetime / tickDuration)
	for id, b := range r.Projectiles {
		if b.HasHit {
			delete(r.Projectiles, id)
			continue
		}
		b.PrevX, b.PrevZ = b.X, b.Z
		b.X += b.VX * dt
		b.Z += b.VZ * dt
		if r.Tick-b.SpawnTick > maxAgeTicks || !r.bounds.Contains(b.X, b.Z) {
			delete(r.Projectiles, id)
		}
	}
}

// collide runs the swept line-circle pass from spec.md §4.5.1: each live
// projectile against each live target, breaking after the first hit so a
// bullet can kill at most one target per tick.
func (r *Room) collide() []HitEvent {
	var hits []HitEvent
	for _, b := range r.Projectiles {
		if b.HasHit {
			continue
		}
		for _, t := range r.Targets {
			if !t.Alive() {
				continue
			}
			radius := TargetRadius(r.cfg.BaseRadius, t.SizeScale, r.cfg.BulletRadius)
			if _, hit := SweptCircleHit(b.PrevX, b.PrevZ, b.X, b.Z, t.X, t.Z, radius); hit {
				b.HasHit = true
				t.HP -= b.Damage
				t.DamageByPlayer[b.OwnerID] += b.Damage
				t.LastHitBy = b.OwnerID
				hits = append(hits, HitEvent{Bullet: b, Target: t})
				break
			}
		}
	}
	return hits
}

func (r *Room) spawnPass() {
	if r.spawner == nil || r.cfg.MaxTargets <= 0 {
		return
	}
	if len(r.Targets) >= r.cfg.MaxTargets {
		return
	}
	if r.cfg.SpawnEveryN > 0 && r.Tick%r.cfg.SpawnEveryN != 0 {
		return
	}
	t := r.spawner.Spawn(r.rng, r.Tick)
	r.Targets[t.ID] = t
}

// AttributeKill splits rewardFP across a dead target's contributors in
// proportion to damage dealt, in integer arithmetic with the last
// contributor (by the ordering below) absorbing rounding residue. Ordering
// is damage descending, then player id ascending for determinism (spec.md
// §4.5.2).
func AttributeKill(target *Target, rewardFP int64) []KillAttribution {
	total := target.TotalDamage()
	if total == 0 {
		return nil
	}

	players := make([]string, 0, len(target.DamageByPlayer))
	for p := range target.DamageByPlayer {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		di, dj := target.DamageByPlayer[players[i]], target.DamageByPlayer[players[j]]
		if di != dj {
			return di > dj
		}
		return players[i] < players[j]
	})

	attributions := make([]KillAttribution, len(players))
	var allocated int64
	for i, p := range players {
		dmg := target.DamageByPlayer[p]
		var share int64
		if i == len(players)-1 {
			share = rewardFP - allocated
		} else {
			share = rewardFP * int64(dmg) / int64(total)
			allocated += share
		}
		attributions[i] = KillAttribution{PlayerID: p, Damage: dmg, ShareFP: share}
	}
	return attributions
}
