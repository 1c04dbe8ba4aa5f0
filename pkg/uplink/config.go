package uplink

import (
	"flag"
	"time"

	"github.com/robotalks/tagback/pkg/env"
)

// Config defines the remote endpoint.
type Config struct {
	BaseURL string
	Path    string
	Timeout time.Duration
}

var defaultConfig = Config{
	BaseURL: DefaultBaseURL,
	Path:    DefaultPath,
	Timeout: DefaultTimeout,
}

func init() {
	defaultConfig.BaseURL = env.String("UPLINK_URL", defaultConfig.BaseURL)
	defaultConfig.Path = env.String("UPLINK_PATH", defaultConfig.Path)
	defaultConfig.Timeout = env.Duration("UPLINK_TIMEOUT", defaultConfig.Timeout)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BaseURL, "uplink", defaultConfig.BaseURL, "Base URL of the logging server.")
	flag.StringVar(&defaultConfig.Path, "uplink-path", defaultConfig.Path, "Path of the logging endpoint.")
	flag.DurationVar(&defaultConfig.Timeout, "uplink-timeout", defaultConfig.Timeout, "Timeout of one request.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewForwarder creates the Forwarder.
func (c *Config) NewForwarder() *Forwarder {
	return &Forwarder{BaseURL: c.BaseURL, Path: c.Path, Timeout: c.Timeout}
}
