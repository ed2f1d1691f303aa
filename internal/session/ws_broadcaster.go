package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeDeadline = 5 * time.Second

// wsConn pairs a websocket connection with the room it is currently bound
// to, so Broadcast can fan out without a second lookup.
type wsConn struct {
	conn   *websocket.Conn
	roomID string
}

// WSBroadcaster is the concrete Broadcaster adapter over gorilla/websocket,
// adapted from the teacher's Hub (internal/api/websocket.go): same
// write-deadline and disconnect-cleanup shape, generalized from JSON text
// frames broadcast to every client to opaque encrypted binary frames routed
// by session id or room id.
type WSBroadcaster struct {
	mu    sync.Mutex
	conns map[[16]byte]*wsConn
}

// NewWSBroadcaster builds an empty broadcaster.
func NewWSBroadcaster() *WSBroadcaster {
	return &WSBroadcaster{conns: make(map[[16]byte]*wsConn)}
}

// Register binds a websocket connection to a session id. Call UpdateRoom
// once the session is bound to a room, and Unregister on disconnect.
func (b *WSBroadcaster) Register(sessionID [16]byte, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[sessionID] = &wsConn{conn: conn}
}

// UpdateRoom records which room a session belongs to, for Broadcast fanout.
func (b *WSBroadcaster) UpdateRoom(sessionID [16]byte, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.conns[sessionID]; ok {
		c.roomID = roomID
	}
}

// Unregister removes a session's connection on disconnect. IdleReaper does
// not call it.
func (b *WSBroadcaster) Unregister(sessionID [16]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, sessionID)
}

// Send writes a binary frame to exactly one session's connection.
func (b *WSBroadcaster) Send(sessionID [16]byte, packet []byte) error {
	b.mu.Lock()
	c, ok := b.conns[sessionID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("session: no connection registered for session")
	}
	return writeBinary(c.conn, packet)
}

// Broadcast writes a binary frame to every session bound to roomID.
func (b *WSBroadcaster) Broadcast(roomID string, packet []byte) error {
	b.mu.Lock()
	targets := make([]*wsConn, 0, len(b.conns))
	for _, c := range b.conns {
		if c.roomID == roomID {
			targets = append(targets, c)
		}
	}
	b.mu.Unlock()

	for _, c := range targets {
		if err := writeBinary(c.conn, packet); err != nil {
			log.Printf("[Session] websocket write error: %v", err)
		}
	}
	return nil
}

func writeBinary(conn *websocket.Conn, packet []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.BinaryMessage, packet)
}
