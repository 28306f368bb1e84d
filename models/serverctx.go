package models

import (
	"fmt"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/internal/backend"
)

// ServerCtx is the gateway's stateful singleton: the loaded Config plus the
// one backend connection factory every session dials through.
type ServerCtx struct {
	Config  *Config
	Factory backend.Factory
}

// NewServerCtx builds the server context and opens the single backend
// connection factory.
func NewServerCtx(conf *Config) (*ServerCtx, error) {
	svr := &ServerCtx{Config: conf}
	if err := svr.Init(); err != nil {
		return nil, err
	}
	return svr, nil
}

// Init opens the backend factory for conf.Target. Split out from
// NewServerCtx so tests can build a ServerCtx and swap in a fake factory
// before connecting.
func (m *ServerCtx) Init() error {
	if m.Config.Target == nil {
		return fmt.Errorf("config is missing a [target] backend database")
	}
	t := m.Config.Target
	engine := backend.EngineMySQL
	if t.Engine == "postgres" {
		engine = backend.EnginePostgres
	}
	factory, err := backend.NewSQLFactory(backend.Target{
		Engine:   engine,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.Username,
		Password: t.Password,
		Database: t.Database,
	})
	if err != nil {
		u.Errorf("could not connect to backend target %s:%d: %v", t.Host, t.Port, err)
		return err
	}
	m.Factory = factory
	return nil
}
