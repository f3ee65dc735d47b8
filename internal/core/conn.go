package core

import "github.com/dkeye/FamilyShare/internal/domain"

// ConnID is the transport-assigned id of one live connection.
// Clients see it as socketId.
type ConnID string

// Frame is one encoded outbound event.
type Frame []byte

// SignalConnection is the send side of a client transport. TrySend never
// blocks: a full queue yields ErrBackpressure and a closed one
// ErrConnClosed. The adapter that created it owns Close.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Peer is a read-only snapshot of a joined connection, safe to use
// after the registry lock is released.
type Peer struct {
	ConnID   ConnID
	Identity domain.Identity
	Signal   SignalConnection
}

// PublishResult counts queued deliveries of a fan-out; Dropped lists
// connections whose queue was full.
type PublishResult struct {
	SendTo  int
	Dropped []ConnID
}
