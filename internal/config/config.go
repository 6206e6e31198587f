package config

import (
	"fmt"

	"github.com/vrischmann/envconfig"
)

// Config is the process-level settings read from the environment. The
// hot-reloadable host settings live in the watch file (see Watch).
type Config struct {
	WatchFile     string   `envconfig:"WATCH_CONFIG,default=watch.ini"`
	LogDir        string   `envconfig:"LOG_DIR,optional"`   // empty: stdout only
	LogLevel      string   `envconfig:"LOG_LEVEL,default=info"`
	StatusAddr    string   `envconfig:"STATUS_ADDR,optional"` // empty: status API off
	StatusAPIKeys []string `envconfig:"STATUS_API_KEYS,optional"`
	StatusRPM     int      `envconfig:"STATUS_RPM,default=120"`
	StatusBurst   int      `envconfig:"STATUS_BURST,default=60"`
	StatusOrigins []string `envconfig:"STATUS_ALLOWED_ORIGINS,optional"`

	// Raw ICMP sockets need CAP_NET_RAW; unprivileged ping uses UDP.
	PingPrivileged bool `envconfig:"PING_PRIVILEGED,default=false"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Init(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env config: %w", err)
	}
	return cfg, nil
}
