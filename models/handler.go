package models

import (
	"net"
	"sync/atomic"

	"github.com/dataux/sqlgateway/internal/backend"
)

// ProtocolKind names which wire protocol a Session is speaking.
type ProtocolKind string

const (
	ProtocolMySQL    ProtocolKind = "mysql"
	ProtocolPostgres ProtocolKind = "postgres"
)

// baseConnID seeds assigned connection/process ids.
var baseConnID uint32 = 10000

// NextConnID hands out the next monotonically assigned, peer-opaque
// connection id.
func NextConnID() uint32 {
	return atomic.AddUint32(&baseConnID, 1)
}

// TxStatus is the Postgres transaction-status hint
// ('I'=idle, 'T'=in-txn, 'E'=failed-txn). MySQL sessions leave it unused.
type TxStatus byte

const (
	TxIdle   TxStatus = 'I'
	TxActive TxStatus = 'T'
	TxFailed TxStatus = 'E'
)

// Session is the per-connection state: one per accepted client TCP
// connection, exclusively owned by its session task, created on accept and
// destroyed on close or fatal protocol error.
//
// Protocol-specific framing state (MySQL's sequence id, Postgres' message
// tag discipline) lives in each wire package's own Conn type, which holds
// a *Session for everything protocol-agnostic.
type Session struct {
	Protocol   ProtocolKind
	Peer       net.Conn
	ConnID     uint32
	User       string
	Schema     string
	TxStatus   TxStatus
	Capability uint32 // negotiated MySQL capability bitmap; unused by Postgres
	Backend    backend.Session
	closed     bool
}

// NewSession creates Session state for a freshly accepted connection. The
// backend handle is attached later, once the protocol engine's init phase
// has parsed enough of the handshake to know the requested schema/user.
func NewSession(protocol ProtocolKind, peer net.Conn) *Session {
	return &Session{
		Protocol: protocol,
		Peer:     peer,
		ConnID:   NextConnID(),
		TxStatus: TxIdle,
	}
}

// Close tears the session down: closes the backend session, then the
// client socket, attempting both even if one fails. Idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var backendErr error
	if s.Backend != nil {
		backendErr = s.Backend.Close()
	}
	peerErr := s.Peer.Close()
	if backendErr != nil {
		return backendErr
	}
	return peerErr
}

// Closed reports whether Close has already run.
func (s *Session) Closed() bool { return s.closed }
