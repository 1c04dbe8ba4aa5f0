package publish

import (
	"flag"
	"log"

	"github.com/robotalks/tagback/pkg/env"
	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/mqtt"
)

// Config defines the broker and the payload encoding.
type Config struct {
	BrokerURL string
	Codec     string
}

var defaultConfig = Config{
	Codec: "json",
}

func init() {
	defaultConfig.BrokerURL = env.String("MQTT", defaultConfig.BrokerURL)
	defaultConfig.Codec = env.String("MQTT_CODEC", defaultConfig.Codec)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL, e.g. mqtt://host:1883/prefix/, empty to disable.")
	flag.StringVar(&defaultConfig.Codec, "codec", defaultConfig.Codec, "Scan encoding: json or proto.")
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

// Enabled tells whether a broker is configured.
func (c *Config) Enabled() bool {
	return c.BrokerURL != ""
}

// NewPublisher creates a Publisher for the configured broker.
func (c *Config) NewPublisher() (*Publisher, error) {
	codec, err := CodecByName(c.Codec)
	if err != nil {
		return nil, err
	}
	q, err := mqtt.NewQueueFromURL(c.BrokerURL)
	if err != nil {
		return nil, err
	}
	return NewPublisher(q, codec), nil
}

// NewMonitor creates a Monitor for the configured broker.
func (c *Config) NewMonitor() (*Monitor, error) {
	q, err := mqtt.NewQueueFromURL(c.BrokerURL)
	if err != nil {
		return nil, err
	}
	return NewMonitor(q), nil
}

// AddToLoop implements LoopAdder. It adds a Publisher when a broker is
// configured and fails on a bad configuration.
func (c *Config) AddToLoop(loop *fx.Loop) {
	if !c.Enabled() {
		return
	}
	p, err := c.NewPublisher()
	if err != nil {
		log.Fatalln(err)
	}
	loop.Add(p)
}
