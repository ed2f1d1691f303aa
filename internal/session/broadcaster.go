package session

// Broadcaster is the narrow interface the controller depends on instead of
// a concrete socket framework object (spec.md §9 "Duck-typed event
// emitters... Replace with a narrow interface"). packet is a fully encoded,
// encrypted wire frame ready to write to the socket.
type Broadcaster interface {
	Send(sessionID [16]byte, packet []byte) error
	Broadcast(roomID string, packet []byte) error
}
