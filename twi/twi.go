// Package twi adapts a byte-level two-wire master, as found on small microcontrollers without a transaction engine,
// to the drivers.I2C interface.
//
// A write phase and a read phase are separate transactions, each closed with a stop condition. Every byte of a read
// but the last is acknowledged; the last is not, which tells the peripheral the read is over.
package twi

import (
	"fmt"
)

// Direction is the R/W bit sent with the address on a start condition.
type Direction uint8

const (
	Write Direction = iota
	Read
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Master is the set of bus primitives a two-wire controller offers. Start reports an error when the addressed
// peripheral does not acknowledge or the bus cannot be acquired.
type Master interface {
	Start(addr uint8, dir Direction) error
	Write(b byte) error
	ReadAck() (byte, error)
	ReadNack() (byte, error)
	Stop() error
}

type Bus struct {
	m Master
}

// New wraps m. The master must already be configured for the desired bus frequency.
func New(m Master) *Bus {
	return &Bus{m: m}
}

// Tx writes w and then reads into r, skipping either phase when its buffer is empty. Only 7-bit addresses are
// supported.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("twi: address %#x is not a 7-bit address", addr)
	}
	if len(w) > 0 {
		if err := b.send(uint8(addr), w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return b.receive(uint8(addr), r)
	}
	return nil
}

func (b *Bus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

func (b *Bus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, len(buf)+1)
	w[0] = r
	copy(w[1:], buf)
	return b.Tx(uint16(addr), w, nil)
}

func (b *Bus) send(addr uint8, w []byte) (err error) {
	if err = b.start(addr, Write); err != nil {
		return err
	}
	defer b.stop(&err)

	for i, c := range w {
		if err = b.m.Write(c); err != nil {
			return fmt.Errorf("twi: write byte %d to %#02x: %w", i, addr, err)
		}
	}
	return nil
}

func (b *Bus) receive(addr uint8, r []byte) (err error) {
	if err = b.start(addr, Read); err != nil {
		return err
	}
	defer b.stop(&err)

	last := len(r) - 1
	for i := range r {
		if i == last {
			r[i], err = b.m.ReadNack()
		} else {
			r[i], err = b.m.ReadAck()
		}
		if err != nil {
			return fmt.Errorf("twi: read byte %d from %#02x: %w", i, addr, err)
		}
	}
	return nil
}

func (b *Bus) start(addr uint8, dir Direction) error {
	if err := b.m.Start(addr, dir); err != nil {
		return fmt.Errorf("twi: start %#02x %s: %w", addr, dir, err)
	}
	return nil
}

// stop releases the bus, keeping the first error seen.
func (b *Bus) stop(err *error) {
	if serr := b.m.Stop(); serr != nil && *err == nil {
		*err = fmt.Errorf("twi: stop: %w", serr)
	}
}
