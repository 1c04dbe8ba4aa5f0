package bridge

import (
	"flag"

	"github.com/robotalks/tagback/pkg/env"
)

// Config defines the HTTP API listener.
type Config struct {
	Addr      string
	RateLimit int
}

var defaultConfig = Config{
	RateLimit: 60,
}

func init() {
	defaultConfig.Addr = env.String("HTTP", defaultConfig.Addr)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Addr, "http", defaultConfig.Addr, "Listen address of the HTTP API, e.g. :8000, empty to disable.")
	flag.IntVar(&defaultConfig.RateLimit, "http-rate", defaultConfig.RateLimit, "Requests per minute per client IP, 0 for no limit.")
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

// Enabled tells whether the API is enabled.
func (c *Config) Enabled() bool {
	return c.Addr != ""
}

// NewServer creates a Server.
func (c *Config) NewServer(readerName string, status StatusFunc) *Server {
	return &Server{Addr: c.Addr, Reader: readerName, Status: status, RateLimit: c.RateLimit}
}
