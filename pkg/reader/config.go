package reader

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robotalks/tagback/pkg/env"
)

// Drivers.
const (
	DriverMFRC522 = "mfrc522"
	DriverStdin   = "stdin"
)

// Config defines how to open the reader and how to poll it.
type Config struct {
	Name   string
	Driver string

	SPIPort  string
	ResetPin string
	IRQPin   string
	CSPin    string
	Sync     bool

	// AntennaGain is 0 to 7, negative keeps the chip default.
	AntennaGain int

	Interval      time.Duration
	Timeout       time.Duration
	HoldTime      time.Duration
	Repeat        bool
	HaltAfterRead bool
}

// Defaults match the usual Raspberry Pi wiring of the RC522 breakout.
var defaultConfig = Config{
	Driver:        DriverMFRC522,
	SPIPort:       "",
	ResetPin:      "GPIO25",
	IRQPin:        "GPIO24",
	AntennaGain:   -1,
	Interval:      100 * time.Millisecond,
	Timeout:       50 * time.Millisecond,
	HoldTime:      500 * time.Millisecond,
	HaltAfterRead: true,
}

func init() {
	defaultConfig.Name = env.String("READER_NAME", env.MachineID())
	defaultConfig.loadEnv()
}

// loadEnv overrides fields from TAGBACK_* variables.
func (c *Config) loadEnv() {
	c.Driver = env.String("READER", c.Driver)
	c.SPIPort = env.String("SPI", c.SPIPort)
	c.CSPin = env.String("CS_PIN", c.CSPin)
	c.Interval = env.Duration("POLL_INTERVAL", c.Interval)
	c.Repeat = env.Bool("REPEAT", c.Repeat)
	c.HaltAfterRead = env.Bool("HALT", c.HaltAfterRead)
	c.Sync = env.Bool("SYNC", c.Sync)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Name, "reader-name", defaultConfig.Name, "Reader name reported with scans.")
	flag.StringVar(&defaultConfig.Driver, "reader", defaultConfig.Driver, "Reader driver: mfrc522 or stdin (one hex UID per line).")
	flag.StringVar(&defaultConfig.SPIPort, "spi", defaultConfig.SPIPort, "SPI port name, empty for the first one.")
	flag.StringVar(&defaultConfig.ResetPin, "reset-pin", defaultConfig.ResetPin, "GPIO wired to RST.")
	flag.StringVar(&defaultConfig.IRQPin, "irq-pin", defaultConfig.IRQPin, "GPIO wired to IRQ.")
	flag.StringVar(&defaultConfig.CSPin, "cs-pin", defaultConfig.CSPin, "GPIO driven as chip select when the bus is shared, empty to use the SPI port's own.")
	flag.BoolVar(&defaultConfig.Sync, "sync", defaultConfig.Sync, "Poll the reader without IRQ.")
	flag.IntVar(&defaultConfig.AntennaGain, "antenna-gain", defaultConfig.AntennaGain, "Antenna gain 0-7, negative for the chip default.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Polling interval.")
	flag.DurationVar(&defaultConfig.Timeout, "read-timeout", defaultConfig.Timeout, "How long each poll waits for a card.")
	flag.DurationVar(&defaultConfig.HoldTime, "hold", defaultConfig.HoldTime, "How long a card counts as present after its last read.")
	flag.BoolVar(&defaultConfig.Repeat, "repeat", defaultConfig.Repeat, "Report a card on every read, not only when newly presented.")
	flag.BoolVar(&defaultConfig.HaltAfterRead, "halt", defaultConfig.HaltAfterRead, "Halt the card after it is read.")
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

// Open opens the configured reader.
func (c *Config) Open() (Reader, error) {
	switch c.Driver {
	case DriverMFRC522:
		return OpenMFRC522(c)
	case DriverStdin:
		return NewLines("stdin", os.Stdin), nil
	default:
		return nil, fmt.Errorf("unknown reader driver %q", c.Driver)
	}
}

// MustOpen opens the reader and fails on error.
func (c *Config) MustOpen() Reader {
	r, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return r
}

// NewScanner creates a Scanner polling r.
func (c *Config) NewScanner(r Reader) *Scanner {
	s := NewScanner(r)
	s.Name = c.Name
	s.Timeout = c.Timeout
	s.HoldTime = c.HoldTime
	s.Repeat = c.Repeat
	s.HaltAfterRead = c.HaltAfterRead
	return s
}
