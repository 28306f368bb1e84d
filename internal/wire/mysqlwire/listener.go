package mysqlwire

import (
	"context"
	"net"
	"sync"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/internal/backend"
	"github.com/dataux/sqlgateway/models"
)

// Listener accepts MySQL-protocol connections and hands each one to its own
// Conn, wired to a backend.Factory for its backend sessions.
type Listener struct {
	addr    string
	factory backend.Factory
	schema  string

	mu       sync.Mutex
	listener net.Listener
}

// NewListener builds a mysqlwire.Listener bound to feConf.Addr, registered
// under models.ListenerRegister("mysql", ...).
func NewListener(feConf *models.ListenerConfig, defaultSchema string, factory backend.Factory) (models.Listener, error) {
	return &Listener{addr: feConf.Addr, factory: factory, schema: defaultSchema}, nil
}

func init() {
	models.ListenerRegister("mysql", NewListener)
}

// Run binds the listen socket and accepts connections until stop is closed
// or signaled, spawning one session goroutine per accepted socket.
func (l *Listener) Run(stop chan bool) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.listener = ln
	l.mu.Unlock()
	u.Infof("mysqlwire: listening on %s", ln.Addr())

	go func() {
		<-stop
		l.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				u.Warnf("mysqlwire: accept error: %v", err)
				return err
			}
		}
		go l.serve(conn)
	}
}

// Addr returns the actual bound address, only valid once Run has started
// listening. Used by tests that bind to ":0" for an ephemeral port.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return ""
	}
	return l.listener.Addr().String()
}

func (l *Listener) serve(netConn net.Conn) {
	c := NewConn(netConn)
	ctx := context.Background()
	if err := c.Handshake(ctx, l.factory, l.schema); err != nil {
		u.Debugf("mysqlwire: handshake failed: %v", err)
		c.Session().Close()
		return
	}
	c.Run(ctx)
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return l.listener.Close()
	}
	return nil
}
