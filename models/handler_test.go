package models

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataux/sqlgateway/internal/backend"
)

// orderedBackend records whether it was closed before the peer socket, the
// teardown ordering spec'd for session close.
type orderedBackend struct {
	closedFirst *bool
	peer        *trackingConn
	closeCount  int
}

func (o *orderedBackend) Execute(ctx context.Context, sql string) (*backend.Result, error) {
	return nil, nil
}
func (o *orderedBackend) SetSchema(ctx context.Context, name string) error { return nil }
func (o *orderedBackend) ServerVersion() string                            { return "" }
func (o *orderedBackend) Close() error {
	o.closeCount++
	if !o.peer.closed {
		*o.closedFirst = true
	}
	return nil
}

type trackingConn struct {
	net.Conn
	closed bool
}

func (c *trackingConn) Close() error {
	c.closed = true
	return c.Conn.Close()
}

func TestNextConnIDMonotonic(t *testing.T) {
	a := NextConnID()
	b := NextConnID()
	assert.Greater(t, b, a)
}

func TestSessionCloseOrderAndIdempotency(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	peer := &trackingConn{Conn: serverSide}
	backendClosedFirst := false
	be := &orderedBackend{closedFirst: &backendClosedFirst, peer: peer}

	sess := NewSession(ProtocolMySQL, peer)
	sess.Backend = be

	require.False(t, sess.Closed())
	require.NoError(t, sess.Close())
	assert.True(t, sess.Closed())
	assert.True(t, backendClosedFirst, "backend session closes before the client socket")
	assert.True(t, peer.closed)

	// idempotent: a second close is a no-op
	require.NoError(t, sess.Close())
	assert.Equal(t, 1, be.closeCount)
}

func TestSessionCloseWithoutBackend(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	sess := NewSession(ProtocolPostgres, serverSide)
	assert.Equal(t, TxIdle, sess.TxStatus)
	require.NoError(t, sess.Close(), "close before backend connect succeeded")
}
