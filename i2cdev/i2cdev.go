// Package i2cdev provides a drivers.I2C bus backed by a Linux /dev/i2c-N adapter, so the drivers in this repository
// can run on a host such as a Raspberry Pi or a BMC.
package i2cdev

import (
	"fmt"

	"github.com/platinasystems/i2c"
)

type Bus struct {
	index int
	bus   i2c.Bus
}

// Open opens /dev/i2c-index. The adapter must support combined transfers (I2C_RDWR).
func Open(index int) (*Bus, error) {
	b := &Bus{index: index}
	if err := b.bus.Open(index); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bus) Close() error {
	return b.bus.Close()
}

// Tx writes w and then reads into r as a single combined transfer, with a repeated start between the two.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	msgs := messages(addr, w, r)
	if len(msgs) == 0 {
		return nil
	}
	if err := b.bus.Send(msgs); err != nil {
		return fmt.Errorf("i2c-%d: transfer to %#02x: %w", b.index, addr, err)
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

// messages builds the I2C_RDWR message list. Empty phases are left out since the kernel rejects zero-length
// messages on most adapters.
func messages(addr uint16, w, r []byte) []i2c.Message {
	msgs := make([]i2c.Message, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, i2c.Message{Address: addr, Data: w})
	}
	if len(r) > 0 {
		msgs = append(msgs, i2c.Message{Address: addr, Flags: i2c.ReadData, Data: r})
	}
	return msgs
}
