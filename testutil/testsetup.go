package testutil

import (
	"flag"
	"fmt"
	"sync"
	"testing"
	"time"

	u "github.com/araddon/gou"
	_ "github.com/go-sql-driver/mysql"

	"github.com/dataux/sqlgateway/internal/backend"
	"github.com/dataux/sqlgateway/internal/wire/mysqlwire"
	"github.com/dataux/sqlgateway/models"
)

var (
	setupOnce sync.Once

	veryVerbose *bool   = flag.Bool("vv", false, "very verbose output")
	logLevel    *string = flag.String("logging", "warn", "Which log level: [debug,info,warn,error,fatal]")
)

// Setup configures logging once per test binary run.
func Setup() {
	setupOnce.Do(func() {
		flag.Parse()
		if *veryVerbose {
			u.SetupLoggingLong(*logLevel)
		} else {
			u.SetupLogging(*logLevel)
		}
		u.SetColorOutput()
	})
}

// RunTestMySQLServer starts a mysqlwire.Listener on an ephemeral loopback
// port backed by factory, and returns a dsn-ready address.
func RunTestMySQLServer(t testing.TB, factory backend.Factory) (addr string, stop func()) {
	Setup()

	listener, err := mysqlwire.NewListener(&models.ListenerConfig{Type: "mysql", Addr: "127.0.0.1:0"}, "demo", factory)
	if err != nil {
		t.Fatalf("could not build test listener: %v", err)
	}
	ml := listener.(*mysqlwire.Listener)

	stopCh := make(chan bool)
	go func() {
		if err := listener.Run(stopCh); err != nil {
			u.Debugf("test mysql listener exited: %v", err)
		}
	}()

	var boundAddr string
	for i := 0; i < 100; i++ {
		if boundAddr = ml.Addr(); boundAddr != "" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if boundAddr == "" {
		t.Fatalf("test mysql listener never bound")
	}

	return fmt.Sprintf("tcp(%s)", boundAddr), func() { close(stopCh) }
}

// FakeArticlesFactory builds a backend.FakeFactory with a small canned
// dataset, used by the mysqlwire end-to-end tests.
func FakeArticlesFactory() *backend.FakeFactory {
	title := "article1"
	author := "aaron"
	count := "22"
	cols := []backend.Column{
		{Name: "title", Kind: backend.KindVarchar, DisplaySize: 255},
		{Name: "author", Kind: backend.KindVarchar, DisplaySize: 255},
		{Name: "count", Kind: backend.KindInt},
	}
	return &backend.FakeFactory{
		Version: "5.7.25-sqlgateway",
		Queries: map[string]*backend.Result{
			"select * from article": backend.StaticRows(cols, []backend.Row{{&title, &author, &count}}),
		},
	}
}
