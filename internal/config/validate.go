package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks configuration correctness. It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if !cfg.RTC.Simulate && cfg.RTC.Bus == nil {
		return errors.New("rtc: bus is required unless simulate is set")
	}
	if cfg.RTC.Bus != nil && *cfg.RTC.Bus < 0 {
		return fmt.Errorf("rtc: invalid bus %d", *cfg.RTC.Bus)
	}
	if cfg.RTC.Address > 0x7F {
		return fmt.Errorf("rtc: address %#02x is not a 7-bit address", cfg.RTC.Address)
	}
	if cfg.Poll.IntervalMs < 100 {
		return fmt.Errorf("poll: interval_ms must be at least 100, got %d", cfg.Poll.IntervalMs)
	}
	if cfg.HTTP.MaxConns < 0 {
		return fmt.Errorf("http: invalid max_conns %d", cfg.HTTP.MaxConns)
	}

	if m := cfg.Publish.MQTT; m != nil {
		if m.Broker == "" {
			return errors.New("publish.mqtt: broker is required")
		}
		u, err := url.Parse(m.Broker)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("publish.mqtt: broker %q must be a URL such as tcp://host:1883", m.Broker)
		}
		if m.QoS > 2 {
			return fmt.Errorf("publish.mqtt: invalid qos %d", m.QoS)
		}
	}

	if m := cfg.Publish.Modbus; m != nil {
		if m.Endpoint == "" {
			return errors.New("publish.modbus: endpoint is required")
		}
		if m.TimeoutMs <= 0 {
			return fmt.Errorf("publish.modbus: invalid timeout_ms %d", m.TimeoutMs)
		}
		// seven registers, one per clock field
		if int(m.Address)+7 > 0x10000 {
			return fmt.Errorf("publish.modbus: address %d leaves no room for 7 registers", m.Address)
		}
	}

	if r := cfg.Publish.Redis; r != nil && r.Address == "" {
		return errors.New("publish.redis: address is required")
	}
	return nil
}
