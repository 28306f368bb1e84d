package proxy

import (
	"fmt"
	"strings"
	"sync"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/models"
)

var asciiIntro = `
     _       _                 _
    | |     | |               | |
  __| | __ _| |_ __ _  __ _  __ _| |_ _____      ____ _ _   _
 / _* |/ _* | __/ _* |/ _* |/ _* | __/ _ \ \ /\ / / _* | | | |
| (_| | (_| | || (_| | (_| | (_| | ||  __/\ V  V / (_| | |_| |
 \__,_|\__,_|\__\__,_|\__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                       __/ |                             __/ |
                      |___/                             |___/
`

func banner() string {
	return strings.Replace(asciiIntro, "*", "`", -1)
}

// Server is the gateway process, responsible for:
//  1) starting the configured protocol *listeners* (mysql, postgresql)
//  2) handing each accepted connection off to its own session task
//  3) closing every listener on Shutdown
//
// Live sessions are not tracked: Shutdown neither signals nor waits for
// connections that were already accepted.
type Server struct {
	conf *models.Config
	ctx  *models.ServerCtx

	frontends []models.Listener
	stop      chan bool

	mu       sync.Mutex
	draining bool
}

// Reason documents why the server is shutting down.
type Reason struct {
	Reason  string
	Err     error
	Message string
}

// NewServer builds a Server from ctx, instantiating one Listener per
// configured frontend via the models.Listeners() registry.
func NewServer(ctx *models.ServerCtx) (*Server, error) {
	svr := &Server{conf: ctx.Config, ctx: ctx, stop: make(chan bool)}
	if err := svr.loadFrontends(); err != nil {
		return nil, err
	}
	return svr, nil
}

// Run is a blocking runner: starts every configured listener and returns
// once Shutdown is called and all listeners have closed.
func (m *Server) Run() {
	fmt.Println(banner())

	if len(m.frontends) == 0 {
		u.Errorf("sqlgateway: no frontends configured")
		return
	}

	var wg sync.WaitGroup
	for _, frontend := range m.frontends {
		wg.Add(1)
		go func(frontend models.Listener) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					u.Errorf("sqlgateway: frontend panic: %v", r)
				}
			}()
			if err := frontend.Run(m.stop); err != nil {
				u.Errorf("sqlgateway: frontend exited: %v", err)
			}
		}(frontend)
	}

	<-m.stop
	for _, frontend := range m.frontends {
		if err := frontend.Close(); err != nil {
			u.Warnf("sqlgateway: error closing frontend: %v", err)
		}
	}
	wg.Wait()
}

func (m *Server) loadFrontends() error {
	registry := models.Listeners()
	defaultSchema := ""
	if m.conf.Target != nil {
		defaultSchema = m.conf.Target.Database
	}
	for _, feConf := range m.conf.Frontends {
		initFn, ok := registry[strings.ToLower(feConf.Type)]
		if !ok {
			return fmt.Errorf("sqlgateway: no listener registered for frontend type %q", feConf.Type)
		}
		listener, err := initFn(feConf, defaultSchema, m.ctx.Factory)
		if err != nil {
			return fmt.Errorf("sqlgateway: could not start %s listener: %w", feConf.Type, err)
		}
		m.frontends = append(m.frontends, listener)
		u.Infof("sqlgateway: loaded %s frontend on %s", feConf.Type, feConf.Addr)
	}
	return nil
}

// Shutdown stops the server: new connections are refused once every
// listener closes. Already-accepted connections are not closed by Shutdown,
// and nothing waits for them to finish.
func (m *Server) Shutdown(reason Reason) {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	m.mu.Unlock()

	if reason.Err != nil {
		u.Warnf("sqlgateway: shutting down: %s: %v", reason.Reason, reason.Err)
	} else {
		u.Infof("sqlgateway: shutting down: %s", reason.Reason)
	}
	close(m.stop)
}
