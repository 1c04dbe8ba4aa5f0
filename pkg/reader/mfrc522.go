package reader

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
	"periph.io/x/host/v3"

	"github.com/robotalks/tagback/pkg/bus"
	"github.com/robotalks/tagback/pkg/tag"
)

// MFRC522 is an MFRC522 module on SPI, driven through periph.io.
type MFRC522 struct {
	dev  *mfrc522.Dev
	port spi.PortCloser
	desc string
}

// OpenMFRC522 initializes the host drivers, opens the SPI port and
// resets the module. Failures are returned, not ignored.
func OpenMFRC522(c *Config) (*MFRC522, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %v", err)
	}
	reset, err := pinByName("reset", c.ResetPin)
	if err != nil {
		return nil, err
	}
	irq, err := pinByName("irq", c.IRQPin)
	if err != nil {
		return nil, err
	}
	port, err := spireg.Open(c.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open SPI %q: %v", c.SPIPort, err)
	}
	r := &MFRC522{port: port}
	var p spi.Port = port
	if c.CSPin != "" {
		cs, err := pinByName("cs", c.CSPin)
		if err != nil {
			port.Close()
			return nil, err
		}
		sel, err := bus.NewSelect(port, cs)
		if err != nil {
			port.Close()
			return nil, err
		}
		p = sel
	}
	if c.Sync {
		r.dev, err = mfrc522.NewSPI(p, reset, irq, mfrc522.WithSync())
	} else {
		r.dev, err = mfrc522.NewSPI(p, reset, irq)
	}
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("init mfrc522 on %s: %v", p, err)
	}
	if c.AntennaGain >= 0 {
		if err := r.dev.SetAntennaGain(c.AntennaGain); err != nil {
			port.Close()
			return nil, fmt.Errorf("mfrc522 antenna gain %d: %v", c.AntennaGain, err)
		}
	}
	r.desc = fmt.Sprintf("mfrc522[%s rst=%s irq=%s]", p, c.ResetPin, c.IRQPin)
	return r, nil
}

func pinByName(role, name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, fmt.Errorf("%s pin not configured", role)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%s pin %q not found", role, name)
	}
	return p, nil
}

// String implements Reader.
func (r *MFRC522) String() string {
	return r.desc
}

// ReadUID implements Reader. The driver doesn't tell a timeout apart
// from a failed exchange; both mean no card for this poll.
func (r *MFRC522) ReadUID(timeout time.Duration) (tag.UID, error) {
	uid, err := r.dev.ReadUID(timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCard, err)
	}
	return tag.UID(uid).Clone(), nil
}

// Halt implements Reader.
func (r *MFRC522) Halt() error {
	return r.dev.Halt()
}

// Close implements Reader.
func (r *MFRC522) Close() error {
	r.dev.Halt()
	return r.port.Close()
}
