package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rawblock/fishshoot-engine/internal/anticheat"
	"github.com/rawblock/fishshoot-engine/internal/audit"
	"github.com/rawblock/fishshoot-engine/internal/fp"
	"github.com/rawblock/fishshoot-engine/internal/game"
	"github.com/rawblock/fishshoot-engine/internal/rtp"
	"github.com/rawblock/fishshoot-engine/internal/wire"
)

// worldBounds and defaultRoomConfig describe the default playfield every
// ROOM_CREATE provisions. Per-room overrides are a lobby-configuration
// concern outside this spec's core; every room uses the same defaults here.
var worldBounds = game.Bounds{MinX: 0, MaxX: 1280, MinZ: 0, MaxZ: 720, Margin: game.DefaultBoundsMargin}

var defaultRoomConfig = game.RoomConfig{
	MaxTargets:     32,
	SpawnEveryN:    20,
	BulletLifetime: game.DefaultBulletLifetime,
	BulletRadius:   8,
	BaseRadius:     16,
}

const spawnSpeedFactor = 40.0

// Controller binds transport sessions to engine slots and routes parsed
// packets (spec.md §4.7). It holds the process-wide, read-only config and
// the session/room registries; one Controller serves every room — each
// Room's own simulation state is still only touched by that room's actor.
type Controller struct {
	Config    *fp.Config
	Sessions  *Registry
	Rooms     *RoomRegistry
	Broadcast Broadcaster
}

// NewController wires a controller over the given config and broadcaster.
func NewController(cfg *fp.Config, bcast Broadcaster) *Controller {
	return &Controller{
		Config:    cfg,
		Sessions:  NewRegistry(),
		Rooms:     NewRoomRegistry(),
		Broadcast: bcast,
	}
}

// HandleShotFired admits a SHOT_FIRED packet: rate limiting, sequence
// anti-replay, and timestamp sanity (spec.md §4.6), then spawns the bullet
// into the room's simulation. Misses are not delivered to the RTP engine —
// actual hit resolution happens in ProcessTick once the swept-collision
// pass registers a hit (spec.md §4.3 "Miss semantics", §9 Open Questions).
func (c *Controller) HandleShotFired(sess *Session, payload wire.ShotFiredPayload, now time.Time) error {
	if sess.Guard.Admit(anticheat.CategoryShoot, now) != anticheat.AdmitAllowed {
		return fmt.Errorf("session: shot rejected by rate limiter or ban")
	}
	if seq := sess.Guard.Sequence.Validate(int64(payload.Seq)); seq != anticheat.SeqAccepted {
		return fmt.Errorf("session: shot rejected: %s", seq)
	}
	if !anticheat.ValidateTimestamp(int64(payload.ClientTS), now.UnixMilli(), anticheat.LagBudget, anticheat.ClockForwardBound) {
		return fmt.Errorf("session: shot rejected: client timestamp out of bounds")
	}

	room, ok := c.Rooms.Get(sess.RoomID)
	if !ok {
		return fmt.Errorf("session: shot fired outside a bound room")
	}

	weapon, ok := c.Config.Weapons[weaponKey(payload.WeaponID)]
	if !ok {
		return fmt.Errorf("session: unknown weapon id %d", payload.WeaponID)
	}

	dx := float64(payload.TargetX)
	dz := float64(payload.TargetZ)
	speed := 200.0 // world units/sec; bullet travel speed is not an outcome-bearing quantity (spec.md §3)
	room.Sim.SpawnBullet(sess.PlayerID, weaponKey(payload.WeaponID), weapon.Damage, int64(payload.CostFP), 0, 0, dx*speed, dz*speed)

	sess.Touch(now)
	return nil
}

// weaponKey maps the wire's numeric weapon id onto the config's string key.
// The mapping itself (id <-> key) is a room-setup concern outside this
// spec's core; callers supply a consistent table via Config.Weapons keyed by
// the same strings used on the wire.
func weaponKey(id uint16) string {
	return fmt.Sprintf("w%d", id)
}

// ProcessTick advances one room's simulation by one fixed tick, resolves
// RTP outcomes for every registered hit, attributes kill rewards, appends
// receipts, and returns the hit/death results the caller encodes into
// HIT_RESULT / FISH_DEATH / BALANCE_UPDATE packets (spec.md §4.5, control
// flow B → C → G → F → E → D → H → B from spec.md §2).
func (c *Controller) ProcessTick(room *Room, dt float64) ([]ResolvedHit, []ResolvedDeath) {
	hits, deaths := room.Sim.Step(dt)

	var resolved []ResolvedHit
	for _, h := range hits {
		outcome, err := room.RTP.Shot(rtp.TargetKey{PlayerID: h.Bullet.OwnerID, TargetID: fmt.Sprint(h.Target.ID)}, h.Bullet.CostFP, h.Target.Tier)
		if err != nil {
			continue
		}
		resolved = append(resolved, ResolvedHit{Hit: h, Outcome: outcome})
	}

	var resolvedDeaths []ResolvedDeath
	for _, t := range deaths {
		var rewardFP int64
		for _, r := range resolved {
			if r.Hit.Target.ID == t.ID && r.Outcome.Kill {
				rewardFP = r.Outcome.RewardFP
			}
		}
		attributions := game.AttributeKill(t, rewardFP)
		receipt := room.Receipts.Append(t.ID, rewardFP, attributions)
		resolvedDeaths = append(resolvedDeaths, ResolvedDeath{Target: t, Attributions: attributions, Receipt: receipt})
	}

	return resolved, resolvedDeaths
}

// ResolvedHit pairs a collision with its RTP outcome.
type ResolvedHit struct {
	Hit     game.HitEvent
	Outcome rtp.Outcome
}

// ResolvedDeath pairs a kill with its attribution and audit receipt.
type ResolvedDeath struct {
	Target       *game.Target
	Attributions []game.KillAttribution
	Receipt      audit.Receipt
}

// Dispatch routes one decoded frame to its handler by packet id (spec.md
// §4.7 "dispatches on packet_id"), returning the reply payload's packet id
// and plaintext body for the caller to encrypt and send with
// Session.NextServerNonce. Packet ids with no server reply (e.g. WEAPON_SWITCH)
// return ok=false.
func (c *Controller) Dispatch(sess *Session, frame wire.Frame, now time.Time) (replyPacketID uint16, replyBody []byte, ok bool, err error) {
	switch frame.Header.PacketID {
	case wire.ShotFired:
		payload, derr := wire.DecodeShotFired(frame.Payload)
		if derr != nil {
			return 0, nil, false, derr
		}
		if herr := c.HandleShotFired(sess, payload, now); herr != nil {
			return 0, nil, false, herr
		}
		return 0, nil, false, nil

	case wire.WeaponSwitch:
		payload, derr := wire.DecodeWeaponSwitch(frame.Payload)
		if derr != nil {
			return 0, nil, false, derr
		}
		if herr := c.HandleWeaponSwitch(sess, payload, now); herr != nil {
			return 0, nil, false, herr
		}
		return 0, nil, false, nil

	case wire.RoomCreate:
		payload, derr := wire.DecodeRoomCreate(frame.Payload)
		if derr != nil {
			return 0, nil, false, derr
		}
		join, herr := c.HandleRoomCreate(sess, payload, now)
		if herr != nil {
			return 0, nil, false, herr
		}
		return wire.PlayerJoin, join.Encode(), true, nil

	case wire.RoomJoin:
		payload, derr := wire.DecodeRoomJoin(frame.Payload)
		if derr != nil {
			return 0, nil, false, derr
		}
		join, herr := c.HandleRoomJoin(sess, payload, now)
		if herr != nil {
			return 0, nil, false, herr
		}
		return wire.PlayerJoin, join.Encode(), true, nil

	case wire.TimeSyncPing:
		payload, derr := wire.DecodeTimeSyncPing(frame.Payload)
		if derr != nil {
			return 0, nil, false, derr
		}
		pong := c.HandleTimeSync(payload, now)
		return wire.TimeSyncPong, pong.Encode(), true, nil

	default:
		return 0, nil, false, fmt.Errorf("session: no dispatch route for packet id 0x%04x", frame.Header.PacketID)
	}
}

// HandleWeaponSwitch admits and applies a WEAPON_SWITCH packet. It carries
// the same rate-limit admission as HandleShotFired, over the weapon_switch
// category instead of shoot (spec.md §4.6, §4.7); it runs no sequence or
// timestamp check.
func (c *Controller) HandleWeaponSwitch(sess *Session, payload wire.WeaponSwitchPayload, now time.Time) error {
	if sess.Guard.Admit(anticheat.CategoryWeaponSwitch, now) != anticheat.AdmitAllowed {
		return fmt.Errorf("session: weapon switch rejected by rate limiter or ban")
	}
	if _, ok := c.Config.Weapons[weaponKey(payload.WeaponID)]; !ok {
		return fmt.Errorf("session: unknown weapon id %d", payload.WeaponID)
	}
	sess.Touch(now)
	return nil
}

// HandleRoomCreate admits a ROOM_CREATE and seats the requesting player as
// host of a freshly constructed room (spec.md §4.7 "binds session.room_id and
// session.player_id on ROOM_CREATE/ROOM_JOIN").
func (c *Controller) HandleRoomCreate(sess *Session, payload wire.RoomCreatePayload, now time.Time) (wire.PlayerJoinPayload, error) {
	if sess.Guard.Admit(anticheat.CategoryRoomAction, now) != anticheat.AdmitAllowed {
		return wire.PlayerJoinPayload{}, fmt.Errorf("session: room create rejected by rate limiter or ban")
	}

	spawner, serr := game.NewSpawner(c.Config.Species, worldBounds, spawnSpeedFactor)
	if serr != nil {
		return wire.PlayerJoinPayload{}, fmt.Errorf("session: room create: %w", serr)
	}
	seed, seedCommitment := newRoomSeed()
	sim := game.NewRoom(defaultRoomConfig, worldBounds, spawner, seed)

	rulesHash := audit.RulesHash(audit.ConfigSnapshot{
		Tiers:   c.Config.Tiers,
		Weapons: c.Config.Weapons,
		Species: c.Config.Species,
	})

	room := NewRoom(NewRoomCode(), payload.PlayerID, sim, c.Config.Tiers, c.Config.KFP, seedCommitment, rulesHash, 1)
	room.AddPlayer(Player{PlayerID: payload.PlayerID, Name: payload.PlayerName, SeatIndex: 0})
	c.Rooms.Add(room)

	sess.Bind(payload.PlayerID, room.ID)
	c.Sessions.BindPlayer(sess)
	sess.Touch(now)

	return wire.PlayerJoinPayload{
		PlayerID:   payload.PlayerID,
		PlayerName: payload.PlayerName,
		SeatIndex:  0,
		IsHost:     true,
	}, nil
}

// HandleRoomJoin admits a ROOM_JOIN and seats the requesting player into an
// existing room by its room code.
func (c *Controller) HandleRoomJoin(sess *Session, payload wire.RoomJoinPayload, now time.Time) (wire.PlayerJoinPayload, error) {
	if sess.Guard.Admit(anticheat.CategoryRoomAction, now) != anticheat.AdmitAllowed {
		return wire.PlayerJoinPayload{}, fmt.Errorf("session: room join rejected by rate limiter or ban")
	}

	room, ok := c.Rooms.Get(payload.RoomCode)
	if !ok {
		return wire.PlayerJoinPayload{}, fmt.Errorf("session: unknown room code %q", payload.RoomCode)
	}

	seat := room.PlayerCount()
	room.AddPlayer(Player{PlayerID: payload.PlayerID, Name: payload.PlayerName, SeatIndex: uint8(seat)})

	sess.Bind(payload.PlayerID, room.ID)
	c.Sessions.BindPlayer(sess)
	sess.Touch(now)

	return wire.PlayerJoinPayload{
		PlayerID:   payload.PlayerID,
		PlayerName: payload.PlayerName,
		SeatIndex:  uint8(seat),
		IsHost:     false,
	}, nil
}

// HandleTimeSync answers a TIME_SYNC_PING with the server's current wall
// clock, for RTT/offset estimation (spec.md §4.7 "answers TIME_SYNC_PING
// immediately").
func (c *Controller) HandleTimeSync(payload wire.TimeSyncPingPayload, now time.Time) wire.TimeSyncPongPayload {
	return wire.TimeSyncPongPayload{
		Seq:      payload.Seq,
		ClientTS: payload.ClientTS,
		ServerTS: uint64(now.UnixMilli()),
	}
}

// newRoomSeed draws a fresh CSPRNG seed for a room's spawn RNG and returns it
// alongside its SHA-256 commitment, so the hash chain can bind to the seed
// (spec.md §4.8) without the server revealing it up front — a client that
// later receives the seed on room teardown can recompute spawn determinism
// and verify it against the committed hash.
func newRoomSeed() (uint64, chainhash.Hash) {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand failing is unrecoverable process state, not a
		// request-scoped error; a zero seed with its own valid commitment
		// still lets the room run rather than panicking mid-request.
		raw = [8]byte{}
	}
	seed := binary.BigEndian.Uint64(raw[:])
	sum := sha256.Sum256(raw[:])
	commitment, _ := chainhash.NewHash(sum[:])
	return seed, *commitment
}

// BroadcastTick encodes a room's per-tick results into wire packets and
// delivers them to every seated player. Each recipient's copy is encrypted
// under that session's own keys and server nonce (spec.md §4.1) — a room
// broadcast cannot reuse one ciphertext across sessions since every session
// derived independent keys at its own handshake, so this fans out via
// per-session Send rather than Broadcaster.Broadcast's single-packet model.
// One HIT_RESULT is sent per resolved hit and one FISH_DEATH per death; a
// tick with neither sends nothing.
func (c *Controller) BroadcastTick(room *Room, hits []ResolvedHit, deaths []ResolvedDeath) {
	for _, h := range hits {
		contributors := make([]wire.ContributorShare, 0, len(h.Hit.Target.DamageByPlayer))
		if h.Outcome.Kill {
			for pid, dmg := range h.Hit.Target.DamageByPlayer {
				share := h.Outcome.RewardFP * int64(dmg) / int64(h.Hit.Target.TotalDamage())
				contributors = append(contributors, wire.ContributorShare{PlayerID: pid, ShareFP: uint64(share)})
			}
		}
		body := wire.HitResultPayload{
			BulletID:          h.Hit.Bullet.ID,
			TargetID:          h.Hit.Target.ID,
			Kill:              h.Outcome.Kill,
			RewardFP:          uint64(h.Outcome.RewardFP),
			Reason:            uint8(h.Outcome.Reason),
			BudgetRemainingFP: h.Outcome.BudgetRemainingFP,
			Shots:             uint32(h.Outcome.Shots),
			Contributors:      contributors,
		}.Encode()
		c.sendToRoom(room, wire.HitResult, body)
	}

	for _, d := range deaths {
		shares := make([]wire.DamageShare, 0, len(d.Attributions))
		for _, a := range d.Attributions {
			shares = append(shares, wire.DamageShare{PlayerID: a.PlayerID, Damage: uint32(a.Damage), ShareFP: uint64(a.ShareFP)})
		}
		speciesID := c.Config.Species[d.Target.Species].ID
		killer := ""
		if len(d.Attributions) > 0 {
			killer = d.Attributions[0].PlayerID
		}
		body := wire.FishDeathPayload{
			TargetID:       d.Target.ID,
			SpeciesID:      uint16(speciesID),
			Tier:           uint8(d.Target.Tier),
			RewardFP:       uint64(sumShares(d.Attributions)),
			KillerPlayerID: killer,
			Contributors:   shares,
		}.Encode()
		c.sendToRoom(room, wire.FishDeath, body)

		for _, a := range d.Attributions {
			c.creditBalance(room, a.PlayerID, a.ShareFP)
		}
	}
}

func sumShares(attributions []game.KillAttribution) int64 {
	var total int64
	for _, a := range attributions {
		total += a.ShareFP
	}
	return total
}

// creditBalance applies a kill-share credit to a seated player's tracked
// balance and notifies them with a BALANCE_UPDATE (spec.md §4.7 "emits
// per-player BALANCE_UPDATE on reward credit").
func (c *Controller) creditBalance(room *Room, playerID string, deltaFP int64) {
	room.mu.Lock()
	var newBalance int64
	for i := range room.Players {
		if room.Players[i].PlayerID == playerID {
			room.Players[i].BalanceFP += deltaFP
			newBalance = room.Players[i].BalanceFP
			break
		}
	}
	room.mu.Unlock()

	sess, ok := c.Sessions.ByPlayerID(playerID)
	if !ok {
		return
	}
	body := wire.BalanceUpdatePayload{
		PlayerID:  playerID,
		BalanceFP: newBalance,
		DeltaFP:   deltaFP,
		Timestamp: uint32(time.Now().Unix()),
	}.Encode()
	c.sendTo(sess, wire.BalanceUpdate, body)
}

// sendToRoom encrypts body once per seated player under that player's own
// session keys and nonce, and delivers it over the Broadcaster.
func (c *Controller) sendToRoom(room *Room, packetID uint16, body []byte) {
	room.mu.Lock()
	players := make([]Player, len(room.Players))
	copy(players, room.Players)
	room.mu.Unlock()

	for _, p := range players {
		sess, ok := c.Sessions.ByPlayerID(p.PlayerID)
		if !ok {
			continue
		}
		c.sendTo(sess, packetID, body)
	}
}

func (c *Controller) sendTo(sess *Session, packetID uint16, body []byte) {
	out, err := wire.Encode(packetID, sess.NextServerNonce(), sess.Keys, body)
	if err != nil {
		return
	}
	_ = c.Broadcast.Send(sess.ID, out)
}

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRoomCode mints a random human-shareable room code, sized to
// wire.RoomCodeSize. It excludes visually ambiguous characters (0/O, 1/I/L)
// the way short join codes typically do.
func NewRoomCode() string {
	buf := make([]byte, wire.RoomCodeSize)
	raw := make([]byte, wire.RoomCodeSize)
	if _, err := rand.Read(raw); err != nil {
		copy(raw, []byte{0, 1, 2, 3, 4, 5})
	}
	for i, b := range raw {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf)
}
