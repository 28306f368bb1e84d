package models

import (
	"strings"
	"sync"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/internal/backend"
)

var (
	_ = u.EMPTY

	listenerMu    sync.Mutex
	listenerFuncs = make(map[string]ListenerInit)
)

// Listener is a protocol-specific, transport-specific acceptor: bind once,
// accept concurrently, spawn one session task per accepted socket. Run
// blocks until Close causes Accept to fail or stop is signaled.
type Listener interface {
	Run(stop chan bool) error
	Close() error
}

// ListenerInit builds a Listener bound to feConf.Addr, wired to factory for
// its backend connections. defaultSchema is the configured backend database,
// used as the session's current schema when the client doesn't name one.
type ListenerInit func(feConf *ListenerConfig, defaultSchema string, factory backend.Factory) (Listener, error)

// ListenerRegister registers a protocol's listener constructor under name
// ("mysql", "postgresql"), letting each protocol package self-register from
// an init() rather than proxy.Server importing it directly.
func ListenerRegister(name string, fn ListenerInit) {
	listenerMu.Lock()
	defer listenerMu.Unlock()
	listenerFuncs[strings.ToLower(name)] = fn
}

// Listeners returns the registry of known protocol listener constructors.
func Listeners() map[string]ListenerInit {
	return listenerFuncs
}
