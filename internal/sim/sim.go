// Package sim simulates a DS3231 register file behind a byte-level two-wire master, so the driver can be exercised
// without hardware.
package sim

import (
	"errors"
	"fmt"

	"github.com/ajanata/ds3231/ds3231"
	"github.com/ajanata/ds3231/twi"
)

// ErrNack is returned by Start when the address does not match the chip.
var ErrNack = errors.New("sim: address not acknowledged")

const (
	busy      = 1 << ds3231.BSY
	clearOnly = 1<<ds3231.OSF | 1<<ds3231.A1F | 1<<ds3231.A2F
)

type state uint8

const (
	idle state = iota
	pointer
	writing
	reading
)

// Chip is a DS3231 on its own bus. The register pointer auto-increments on every byte transferred and wraps after
// the last register.
type Chip struct {
	Address   uint8
	Registers [ds3231.NumRegisters]byte

	// Trace records every primitive: "S68W", "W0F", "RA", "RN", "P".
	Trace []string

	state  state
	ptr    uint8
	starts int
	fails  map[int]error
}

// New returns a chip in its power-on state: oscillator stop flag and 32kHz output set, clock at 00-01-01 00:00:00.
func New() *Chip {
	c := &Chip{Address: ds3231.Address}
	c.Registers[ds3231.Weekday] = 0x01
	c.Registers[ds3231.Date] = 0x01
	c.Registers[ds3231.Month] = 0x01
	c.Registers[ds3231.Control] = 1<<ds3231.RS1 | 1<<ds3231.RS2 | 1<<ds3231.INTCN
	c.Registers[ds3231.Status] = 1<<ds3231.OSF | 1<<ds3231.EN32KHZ
	return c
}

// Fail makes the n-th following Start return err; n=1 is the next one.
func (c *Chip) Fail(n int, err error) {
	if c.fails == nil {
		c.fails = make(map[int]error)
	}
	c.fails[c.starts+n] = err
}

func (c *Chip) Start(addr uint8, dir twi.Direction) error {
	c.starts++
	d := 'W'
	if dir == twi.Read {
		d = 'R'
	}
	c.Trace = append(c.Trace, fmt.Sprintf("S%02x%c", addr, d))
	if err, ok := c.fails[c.starts]; ok {
		delete(c.fails, c.starts)
		c.state = idle
		return err
	}
	if addr != c.Address {
		c.state = idle
		return ErrNack
	}
	if dir == twi.Read {
		c.state = reading
	} else {
		c.state = pointer
	}
	return nil
}

func (c *Chip) Write(b byte) error {
	c.Trace = append(c.Trace, fmt.Sprintf("W%02x", b))
	switch c.state {
	case pointer:
		c.ptr = b % ds3231.NumRegisters
		c.state = writing
	case writing:
		c.store(c.ptr, b)
		c.advance()
	default:
		return errors.New("sim: write outside a write transaction")
	}
	return nil
}

func (c *Chip) ReadAck() (byte, error) {
	c.Trace = append(c.Trace, "RA")
	return c.load()
}

func (c *Chip) ReadNack() (byte, error) {
	c.Trace = append(c.Trace, "RN")
	b, err := c.load()
	c.state = idle
	return b, err
}

func (c *Chip) Stop() error {
	c.Trace = append(c.Trace, "P")
	c.state = idle
	return nil
}

func (c *Chip) load() (byte, error) {
	if c.state != reading {
		return 0, errors.New("sim: read outside a read transaction")
	}
	b := c.Registers[c.ptr]
	c.advance()
	return b, nil
}

func (c *Chip) store(reg, b uint8) {
	switch reg {
	case ds3231.Status:
		// BSY is read-only, the flags can only be cleared
		old := c.Registers[reg]
		b = b&^(busy|clearOnly) | old&busy | old&b&clearOnly
	case ds3231.TemperatureMSB, ds3231.TemperatureLSB:
		return
	}
	c.Registers[reg] = b
}

func (c *Chip) advance() {
	c.ptr = (c.ptr + 1) % ds3231.NumRegisters
}
