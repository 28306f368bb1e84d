package models

import (
	"testing"

	u "github.com/araddon/gou"
	"github.com/stretchr/testify/assert"
)

func init() {
	u.SetupLogging("debug")
	u.SetColorOutput()
}

func TestConfig(t *testing.T) {

	var configData = `

supress_recover = true
log_level = debug

# FrontEnd is our inbound tcp connection listener's
frontends [
  {
    type    : mysql
    address : "127.0.0.1:13307"
  }
]

target {
  host     : "127.0.0.1"
  port     : 3306
  username : "root"
  password : ""
  database : "demo"
}
`

	conf, err := LoadConfig(configData)
	assert.True(t, err == nil && conf != nil, "Must not error on parse of config: %v", err)

	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, 1, len(conf.Frontends))
	assert.Equal(t, "mysql", conf.Frontends[0].Type)
	assert.Equal(t, "demo", conf.Target.Database)
	assert.Equal(t, "mysql", conf.Target.Engine, "engine should default from the sole frontend")
}

func TestConfigDefaultAddr(t *testing.T) {
	conf, err := LoadConfig(`
frontends [ { type: mysql } ]
target {
  host: "127.0.0.1"
  port: 3306
  username: "root"
  database: "demo"
}
`)
	assert.NoError(t, err)
	assert.Equal(t, ":3307", conf.Frontends[0].Addr)
}
