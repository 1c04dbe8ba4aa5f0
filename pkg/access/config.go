package access

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/robotalks/tagback/pkg/env"
	"github.com/robotalks/tagback/pkg/indicator"
	"github.com/robotalks/tagback/pkg/tag"
)

// Config defines the authorized UID and the decision LEDs.
type Config struct {
	Authorized string
	GrantPin   string
	DenyPin    string
	PulseTime  time.Duration
}

var defaultConfig = Config{
	Authorized: "DEADBEEF",
	PulseTime:  time.Second,
}

func init() {
	defaultConfig.Authorized = env.String("AUTHORIZED_UID", defaultConfig.Authorized)
	defaultConfig.GrantPin = env.String("LED_GRANT", defaultConfig.GrantPin)
	defaultConfig.DenyPin = env.String("LED_DENY", defaultConfig.DenyPin)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Authorized, "authorized", defaultConfig.Authorized, "The authorized UID in hex, e.g. DE:AD:BE:EF.")
	flag.StringVar(&defaultConfig.GrantPin, "led-grant", defaultConfig.GrantPin, "GPIO lit when access is granted, log:NAME to only log it.")
	flag.StringVar(&defaultConfig.DenyPin, "led-deny", defaultConfig.DenyPin, "GPIO lit when access is denied, log:NAME to only log it.")
	flag.DurationVar(&defaultConfig.PulseTime, "pulse", defaultConfig.PulseTime, "How long the grant or deny LED stays lit.")
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

// NewController parses the authorized UID and opens the LEDs.
func (c *Config) NewController() (*Controller, error) {
	uid, err := tag.ParseUID(c.Authorized)
	if err != nil {
		return nil, fmt.Errorf("authorized UID: %w", err)
	}
	ctl := NewController(uid)
	ctl.PulseTime = c.PulseTime
	if ctl.GrantLED, err = indicator.OpenLED(c.GrantPin); err != nil {
		return nil, err
	}
	if ctl.DenyLED, err = indicator.OpenLED(c.DenyPin); err != nil {
		return nil, err
	}
	return ctl, nil
}

// MustNewController is NewController which fails on error.
func (c *Config) MustNewController() *Controller {
	ctl, err := c.NewController()
	if err != nil {
		log.Fatalln(err)
	}
	return ctl
}
