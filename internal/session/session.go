// Package session implements the session and room controller from spec.md
// §4.7: binds a transport connection to derived keys and nonces, and
// eventually to a player_id/room_id; dispatches parsed packets; emits
// per-player updates; reaps inactive sessions.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rawblock/fishshoot-engine/internal/anticheat"
	"github.com/rawblock/fishshoot-engine/internal/wire"
)

// IdleTimeout is the fixed inactivity bound from spec.md §4.7.
const IdleTimeout = 30 * time.Minute

// Session is per-connection state: derived keys, nonce watermarks, and the
// eventual player/room binding (spec.md §3 "Session"). A Session is mutated
// only by its own connection's goroutine — the per-room actor model and the
// per-connection read loop provide that serialization (spec.md §5).
type Session struct {
	ID   [16]byte
	Keys wire.SessionKeys

	LastClientNonce uint64
	ServerNonce     uint64

	PlayerID string
	RoomID   string

	CreatedAt    time.Time
	LastActivity time.Time

	Guard *anticheat.SessionGuard
}

// NewSession builds a Session from a completed handshake result.
func NewSession(sessionID [16]byte, keys wire.SessionKeys, guard *anticheat.SessionGuard, now time.Time) *Session {
	return &Session{
		ID:           sessionID,
		Keys:         keys,
		CreatedAt:    now,
		LastActivity: now,
		Guard:        guard,
	}
}

// Touch records activity for idle-reaping purposes.
func (s *Session) Touch(now time.Time) { s.LastActivity = now }

// Idle reports whether the session has been inactive past IdleTimeout.
func (s *Session) Idle(now time.Time) bool {
	return now.Sub(s.LastActivity) > IdleTimeout
}

// NextServerNonce increments and returns the server's outgoing nonce
// counter (spec.md §4.1 "server maintains its own outgoing server_nonce
// counter").
func (s *Session) NextServerNonce() uint64 {
	s.ServerNonce++
	return s.ServerNonce
}

// Bind attaches a player_id and room_id to the session, as happens on
// ROOM_CREATE/ROOM_JOIN (spec.md §4.7).
func (s *Session) Bind(playerID, roomID string) {
	s.PlayerID = playerID
	s.RoomID = roomID
}

// NewPlayerID mints a fresh opaque player id. Direct replacement for the
// teacher's ad hoc uuid.New() ids in internal/heuristics/llr_engine.go,
// generalized from evidence-edge ids to player ids.
func NewPlayerID() string { return uuid.NewString() }

// NewSessionID mints a fresh 16-byte session id for the handshake response.
func NewSessionID() [16]byte {
	u := uuid.New()
	var id [16]byte
	copy(id[:], u[:])
	return id
}

// Registry maps session ids and player ids to their Session, and is the
// single mutable index the controller consults (spec.md §4.7 "Maintains two
// maps"). Registry itself is safe for concurrent use — multiple connection
// goroutines register/deregister independently — but a retrieved *Session
// must only be mutated by its own connection's goroutine.
type Registry struct {
	mu         sync.RWMutex
	bySession  map[[16]byte]*Session
	byPlayer   map[string]*Session
}

// NewRegistry builds an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		bySession: make(map[[16]byte]*Session),
		byPlayer:  make(map[string]*Session),
	}
}

// Add registers a new session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySession[s.ID] = s
}

// BindPlayer indexes a session by player id once bound (call after
// Session.Bind).
func (r *Registry) BindPlayer(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPlayer[s.PlayerID] = s
}

// Remove deregisters a session from both maps.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bySession, s.ID)
	if s.PlayerID != "" {
		delete(r.byPlayer, s.PlayerID)
	}
}

// BySessionID looks up a session by its id.
func (r *Registry) BySessionID(id [16]byte) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bySession[id]
	return s, ok
}

// ByPlayerID looks up a session by its bound player id.
func (r *Registry) ByPlayerID(playerID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byPlayer[playerID]
	return s, ok
}

// Idle returns every session past IdleTimeout, for the reaper to evict from
// the registries. Eviction does not close the session's websocket.
func (r *Registry) Idle(now time.Time) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var idle []*Session
	for _, s := range r.bySession {
		if s.Idle(now) {
			idle = append(idle, s)
		}
	}
	return idle
}
