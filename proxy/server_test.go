package proxy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataux/sqlgateway/internal/backend"
	"github.com/dataux/sqlgateway/models"
)

// stubListener stands in for a protocol frontend: Run blocks until the
// server signals shutdown.
type stubListener struct {
	ran    chan bool
	closed bool
}

func (s *stubListener) Run(stop chan bool) error {
	close(s.ran)
	<-stop
	return nil
}

func (s *stubListener) Close() error {
	s.closed = true
	return nil
}

func init() {
	models.ListenerRegister("stubtest", func(feConf *models.ListenerConfig, defaultSchema string, factory backend.Factory) (models.Listener, error) {
		stub := &stubListener{ran: make(chan bool)}
		registered = stub
		return stub, nil
	})
}

var registered *stubListener

func testServerCtx() *models.ServerCtx {
	return &models.ServerCtx{
		Config: &models.Config{
			Frontends: []*models.ListenerConfig{{Type: "stubtest", Addr: "127.0.0.1:0"}},
		},
		Factory: &backend.FakeFactory{},
	}
}

func TestServerRunAndShutdown(t *testing.T) {
	svr, err := NewServer(testServerCtx())
	require.NoError(t, err)

	done := make(chan bool)
	go func() {
		svr.Run()
		close(done)
	}()

	select {
	case <-registered.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never started")
	}

	svr.Shutdown(Reason{Reason: "test"})
	// a second shutdown must be a harmless no-op, not a panic
	svr.Shutdown(Reason{Reason: "test again"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server never drained")
	}
	assert.True(t, registered.closed)
}

func TestNewServerUnknownFrontend(t *testing.T) {
	ctx := &models.ServerCtx{
		Config: &models.Config{
			Frontends: []*models.ListenerConfig{{Type: "nosuchprotocol"}},
		},
		Factory: &backend.FakeFactory{},
	}
	_, err := NewServer(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no listener registered")
}
