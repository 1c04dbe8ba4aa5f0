package indicator

import (
	"flag"
	"log"

	"github.com/robotalks/tagback/pkg/env"
)

// Config defines the GPIOs of the presence LEDs.
type Config struct {
	PresentPin string
	IdlePin    string
}

var defaultConfig = Config{
	PresentPin: "GPIO17",
	IdlePin:    "GPIO27",
}

func init() {
	defaultConfig.PresentPin = env.String("LED_PRESENT", defaultConfig.PresentPin)
	defaultConfig.IdlePin = env.String("LED_IDLE", defaultConfig.IdlePin)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.PresentPin, "led-present", defaultConfig.PresentPin, "GPIO of the card present LED, log:NAME to only log it.")
	flag.StringVar(&defaultConfig.IdlePin, "led-idle", defaultConfig.IdlePin, "GPIO of the idle LED, log:NAME to only log it.")
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

// Open resolves both LEDs.
func (c *Config) Open() (Indicator, error) {
	var ind Indicator
	var err error
	if ind.Present, err = OpenLED(c.PresentPin); err != nil {
		return ind, err
	}
	if ind.Idle, err = OpenLED(c.IdlePin); err != nil {
		return ind, err
	}
	return ind, nil
}

// MustOpen resolves both LEDs and fails on error.
func (c *Config) MustOpen() Indicator {
	ind, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return ind
}
