package session

import (
	"log"
	"time"
)

// IdleReaper periodically sweeps the session registry for connections past
// IdleTimeout, the same ticker-driven shape as the teacher's cleanupLoop
// (internal/api/ratelimit.go) generalized from rate-limit buckets to whole
// sessions.
type IdleReaper struct {
	registry *Registry
	rooms    *RoomRegistry
	bcast    Broadcaster
	interval time.Duration
	stop     chan struct{}
}

// NewIdleReaper builds a reaper that sweeps every interval.
func NewIdleReaper(registry *Registry, rooms *RoomRegistry, bcast Broadcaster, interval time.Duration) *IdleReaper {
	return &IdleReaper{registry: registry, rooms: rooms, bcast: bcast, interval: interval, stop: make(chan struct{})}
}

// Run blocks sweeping on a ticker until Stop is called. Callers start it in
// its own goroutine.
func (r *IdleReaper) Run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.sweep(now)
		}
	}
}

// Stop ends the reaper's sweep loop.
func (r *IdleReaper) Stop() { close(r.stop) }

func (r *IdleReaper) sweep(now time.Time) {
	for _, s := range r.registry.Idle(now) {
		log.Printf("[Session] reaping idle session player=%s room=%s", s.PlayerID, s.RoomID)
		r.evict(s)
	}
}

// evict removes a session from the registry and, if it held a room seat,
// unseats it and deletes the room once empty (spec.md §4.7 "evicts idle
// sessions... On disconnect, removes the player from the room... deletes
// the room when empty").
func (r *IdleReaper) evict(s *Session) {
	r.registry.Remove(s)
	if s.RoomID == "" {
		return
	}
	room, ok := r.rooms.Get(s.RoomID)
	if !ok {
		return
	}
	if room.RemovePlayer(s.PlayerID) {
		r.rooms.Remove(s.RoomID)
	}
}
