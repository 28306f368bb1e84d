package models

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/lytics/confl"
)

// LoadConfigFromFile reads a confl-formatted config file from disk, with
// $VAR expansion applied before decode.
func LoadConfigFromFile(filename string) (*Config, error) {
	var c Config
	confBytes, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if _, err = confl.Decode(os.ExpandEnv(string(confBytes)), &c); err != nil {
		return nil, err
	}
	c.setDefaults()
	return &c, nil
}

// LoadConfig loads a confl-formatted config from an in-memory string.
func LoadConfig(conf string) (*Config, error) {
	var c Config
	if _, err := confl.Decode(os.ExpandEnv(conf), &c); err != nil {
		return nil, err
	}
	c.setDefaults()
	return &c, nil
}

type (
	// Config is the gateway's whole configuration surface: which
	// protocol(s) to front, which port(s) to listen on, and the single
	// backend database every session executes against.
	Config struct {
		SupressRecover bool              `json:"supress_recover"` // do we recover panics per-session?
		LogLevel       string            `json:"log_level"`       // [debug,info,warn,error]
		Frontends      []*ListenerConfig `json:"frontends"`       // one entry per enabled protocol
		Target         *TargetConfig     `json:"target"`          // the single backend database
	}
	// ListenerConfig is one frontend protocol listener, generalized to a
	// list so both protocols can be fronted from one process.
	ListenerConfig struct {
		Type string `json:"type"` // "mysql" | "postgresql"
		Addr string `json:"address"`
	}
	// TargetConfig is the backend database coordinates: target.host,
	// target.port, target.username, target.password, target.database.
	// Engine selects the database/sql driver; left empty it defaults to
	// the sole configured frontend's protocol.
	TargetConfig struct {
		Engine   string `json:"engine"` // "mysql" | "postgres"
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		Database string `json:"database"`
	}
)

// Default listen ports, chosen to avoid colliding with a real local MySQL
// on 3306.
const (
	DefaultMySQLPort    = 3307
	DefaultPostgresPort = 5432
)

func (c *Config) setDefaults() {
	if c.Target != nil && c.Target.Engine == "" && len(c.Frontends) == 1 {
		c.Target.Engine = normalizeEngine(c.Frontends[0].Type)
	}
	for _, fe := range c.Frontends {
		if fe.Addr != "" {
			continue
		}
		switch fe.Type {
		case "mysql":
			fe.Addr = fmt.Sprintf(":%d", DefaultMySQLPort)
		case "postgresql", "postgres":
			fe.Addr = fmt.Sprintf(":%d", DefaultPostgresPort)
		}
	}
}

func normalizeEngine(protocolType string) string {
	switch protocolType {
	case "postgresql", "postgres":
		return "postgres"
	default:
		return "mysql"
	}
}

// Addr returns the TargetConfig's host:port, the form database/sql drivers
// or net.Dial expect.
func (t *TargetConfig) Addr() string {
	return t.Host + ":" + strconv.Itoa(t.Port)
}
