package pgwire

import (
	"context"
	"net"
	"sync"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/internal/backend"
	"github.com/dataux/sqlgateway/models"
)

// Listener accepts Postgres-protocol connections and hands each one to its
// own Conn, the pgwire counterpart to mysqlwire.Listener.
type Listener struct {
	addr    string
	factory backend.Factory
	schema  string

	mu       sync.Mutex
	listener net.Listener
}

// NewListener builds a pgwire.Listener bound to feConf.Addr, registered
// under models.ListenerRegister("postgresql", ...).
func NewListener(feConf *models.ListenerConfig, defaultSchema string, factory backend.Factory) (models.Listener, error) {
	return &Listener{addr: feConf.Addr, factory: factory, schema: defaultSchema}, nil
}

func init() {
	models.ListenerRegister("postgresql", NewListener)
	models.ListenerRegister("postgres", NewListener)
}

// Run binds the listen socket and accepts connections until stop is closed.
func (l *Listener) Run(stop chan bool) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.listener = ln
	l.mu.Unlock()
	u.Infof("pgwire: listening on %s", ln.Addr())

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
				u.Warnf("pgwire: accept error: %v", err)
				return err
			}
		}
		go l.serve(conn)
	}
}

func (l *Listener) serve(netConn net.Conn) {
	c := NewConn(netConn)
	ctx := context.Background()
	if err := c.Handshake(ctx, l.factory, l.schema); err != nil {
		u.Debugf("pgwire: handshake failed: %v", err)
		c.Session().Close()
		return
	}
	c.Run(ctx)
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

// Close stops accepting new connections.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return l.listener.Close()
	}
	return nil
}
