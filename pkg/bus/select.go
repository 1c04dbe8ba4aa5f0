// Package bus shares one SPI bus between several peripherals by
// driving a dedicated chip-select line around every transfer.
package bus

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Select wraps an SPI port. Every transfer on a connection obtained
// from it pulls CS low first and releases it (high) afterwards. The
// lock is shared by all Selects of the same bus, so only one
// peripheral is addressed at a time.
type Select struct {
	spi.Port
	CS gpio.PinOut

	lock *sync.Mutex
}

// Bus is a lock shared by the Selects wired to one physical bus.
type Bus struct {
	lock sync.Mutex
}

// Select wraps port on this bus with cs as its chip-select line. The
// line is deselected immediately.
func (b *Bus) Select(port spi.Port, cs gpio.PinOut) (*Select, error) {
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("deselect %s: %v", cs, err)
	}
	return &Select{Port: port, CS: cs, lock: &b.lock}, nil
}

// NewSelect wraps port on a bus of its own.
func NewSelect(port spi.Port, cs gpio.PinOut) (*Select, error) {
	return (&Bus{}).Select(port, cs)
}

// String implements spi.Port.
func (s *Select) String() string {
	return fmt.Sprintf("%s/cs=%s", s.Port, s.CS)
}

// Connect implements spi.Port.
func (s *Select) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	conn, err := s.Port.Connect(f, mode, bits)
	if err != nil {
		return nil, err
	}
	return &selectConn{Conn: conn, sel: s}, nil
}

// Close closes the wrapped port if it can be closed. CS is left high.
func (s *Select) Close() error {
	if closer, ok := s.Port.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Select) transfer(fn func() error) (err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err = s.CS.Out(gpio.Low); err != nil {
		return fmt.Errorf("select %s: %v", s.CS, err)
	}
	defer func() {
		if derr := s.CS.Out(gpio.High); derr != nil && err == nil {
			err = fmt.Errorf("deselect %s: %v", s.CS, derr)
		}
	}()
	return fn()
}

type selectConn struct {
	spi.Conn
	sel *Select
}

// Tx implements conn.Conn.
func (c *selectConn) Tx(w, r []byte) error {
	return c.sel.transfer(func() error { return c.Conn.Tx(w, r) })
}

// TxPackets implements spi.Conn.
func (c *selectConn) TxPackets(p []spi.Packet) error {
	return c.sel.transfer(func() error { return c.Conn.TxPackets(p) })
}
