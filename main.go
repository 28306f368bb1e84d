package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	// Protocol listener registrations, side-effect imports so main.go never
	// has to name the wire packages directly.
	_ "github.com/dataux/sqlgateway/internal/wire/mysqlwire"
	_ "github.com/dataux/sqlgateway/internal/wire/pgwire"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/models"
	"github.com/dataux/sqlgateway/proxy"
)

var (
	configFile *string = flag.String("config", "sqlgateway.conf", "sqlgateway config file")
	logLevel   *string = flag.String("loglevel", "debug", "log level [debug|info|warn|error]")
)

func main() {

	runtime.GOMAXPROCS(runtime.NumCPU())

	flag.Parse()

	if len(*configFile) == 0 {
		u.Errorf("must use a config file")
		return
	}
	u.SetupLogging(*logLevel)
	u.SetColorIfTerminal()

	conf, err := models.LoadConfigFromFile(*configFile)
	if err != nil {
		u.Errorf("Could not load config: %v", err)
		os.Exit(1)
	}
	if conf.LogLevel != "" {
		u.SetupLogging(conf.LogLevel)
	}

	svrCtx, err := models.NewServerCtx(conf)
	if err != nil {
		u.Errorf("Could not initialize server context: %v", err)
		os.Exit(1)
	}

	svr, err := proxy.NewServer(svrCtx)
	if err != nil {
		u.Errorf("%v", err)
		os.Exit(1)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		sig := <-sc
		u.Infof("Got signal [%d] to exit.", sig)
		svr.Shutdown(proxy.Reason{Reason: "signal", Message: fmt.Sprintf("%v", sig)})
	}()

	svr.Run()
}
