package session

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rawblock/fishshoot-engine/internal/audit"
	"github.com/rawblock/fishshoot-engine/internal/fp"
	"github.com/rawblock/fishshoot-engine/internal/game"
	"github.com/rawblock/fishshoot-engine/internal/rtp"
)

// Player is one seated occupant of a Room.
type Player struct {
	PlayerID  string
	Name      string
	BalanceFP int64
	SeatIndex uint8
}

// Room binds one game.Room simulation to its RTP engine, audit hash chain,
// and seated players (spec.md §4.7, §5 "each room is a single logical
// actor"). Access to a Room must be serialized by its owning goroutine —
// Registry only hands out pointers, it does not itself lock Room internals.
type Room struct {
	ID       string
	HostID   string
	Sim      *game.Room
	RTP      *rtp.Engine
	Receipts *audit.Chain

	Players []Player

	mu sync.Mutex
}

// NewRoom constructs a Room wired to its simulation, RTP engine, and
// receipt chain.
func NewRoom(id, hostID string, sim *game.Room, tiers map[int]fp.TierConfig, kFP int64, seedCommitment, rulesHash chainhash.Hash, rulesVersion int) *Room {
	return &Room{
		ID:       id,
		HostID:   hostID,
		Sim:      sim,
		RTP:      rtp.NewEngine(tiers, kFP),
		Receipts: audit.NewChain(seedCommitment, rulesHash, rulesVersion),
	}
}

// AddPlayer seats a new player, assigning the next open seat index.
func (r *Room) AddPlayer(p Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.SeatIndex = uint8(len(r.Players))
	r.Players = append(r.Players, p)
}

// RemovePlayer unseats a player by id, reassigning host to the next
// remaining player if the host left (spec.md §4.7 "reassigns host if
// needed"). It reports whether the room is now empty.
func (r *Room) RemovePlayer(playerID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.Players {
		if p.PlayerID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}
	if r.HostID == playerID && len(r.Players) > 0 {
		r.HostID = r.Players[0].PlayerID
	}
	return len(r.Players) == 0
}

// PlayerCount returns the number of seated players.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Players)
}

// RoomRegistry maps room ids to Room. Safe for concurrent Add/Remove/Get;
// mutation of a retrieved *Room's simulation state must still happen only
// on that room's own actor goroutine.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomRegistry builds an empty room registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*Room)}
}

// Add registers a new room.
func (rr *RoomRegistry) Add(r *Room) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.rooms[r.ID] = r
}

// Get looks up a room by id.
func (rr *RoomRegistry) Get(roomID string) (*Room, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	r, ok := rr.rooms[roomID]
	return r, ok
}

// Remove deletes a room, e.g. once it becomes empty (spec.md §4.7 "deletes
// the room when empty").
func (rr *RoomRegistry) Remove(roomID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.rooms, roomID)
}

// All returns a snapshot of every currently registered room, for the tick
// loop to iterate without holding the registry lock across each room's Step.
func (rr *RoomRegistry) All() []*Room {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	out := make([]*Room, 0, len(rr.rooms))
	for _, r := range rr.rooms {
		out = append(out, r)
	}
	return out
}
