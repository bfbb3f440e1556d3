package publish

import (
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/ajanata/ds3231/internal/config"
)

type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Modbus mirrors readings into holding registers of a Modbus TCP device, so PLCs without their own clock source
// can pick the time up.
type Modbus struct {
	mu      sync.Mutex
	client  registerWriter
	close   func() error
	address uint16
}

func DialModbus(cfg config.ModbusConfig) (*Modbus, error) {
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus: connect to %s: %w", cfg.Endpoint, err)
	}
	return newModbus(modbus.NewClient(h), h.Close, cfg.Address), nil
}

func newModbus(client registerWriter, closer func() error, address uint16) *Modbus {
	return &Modbus{client: client, close: closer, address: address}
}

func (m *Modbus) Publish(r Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	regs := registers(r)
	if _, err := m.client.WriteMultipleRegisters(m.address, uint16(len(regs)), packRegisters(regs)); err != nil {
		return fmt.Errorf("modbus: write registers at %d: %w", m.address, err)
	}
	return nil
}

func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.close()
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
