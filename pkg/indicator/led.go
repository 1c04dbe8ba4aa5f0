// Package indicator drives the presence LEDs.
package indicator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// LED is a binary output. gpio.PinOut satisfies it.
type LED interface {
	Out(l gpio.Level) error
}

// LogLED is an LED without hardware: level changes are logged.
type LogLED struct {
	Name string

	lock  sync.Mutex
	level gpio.Level
}

// Out implements LED.
func (l *LogLED) Out(level gpio.Level) error {
	l.lock.Lock()
	l.level = level
	l.lock.Unlock()
	glog.Infof("LED %s: %s", l.Name, level)
	return nil
}

// Level returns the last level set.
func (l *LogLED) Level() gpio.Level {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.level
}

const logPrefix = "log:"

// OpenLED resolves an LED by name:
//   - "" means no LED and returns nil;
//   - "log:NAME" returns a LogLED;
//   - anything else is a GPIO name looked up in the periph registry.
func OpenLED(name string) (LED, error) {
	switch {
	case name == "":
		return nil, nil
	case strings.HasPrefix(name, logPrefix):
		return &LogLED{Name: name[len(logPrefix):]}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %v", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("LED pin %q not found", name)
	}
	return p, nil
}

// Set drives led to level. A nil LED is skipped.
func Set(led LED, level gpio.Level) error {
	if led == nil {
		return nil
	}
	return led.Out(level)
}
