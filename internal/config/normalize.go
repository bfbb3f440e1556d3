package config

import "github.com/ajanata/ds3231/ds3231"

const (
	DefaultIntervalMs    = 1000
	DefaultMaxConns      = 8
	DefaultMQTTClientID  = "rtcd"
	DefaultMQTTTopic     = "rtc/time"
	DefaultModbusTimeout = 1000
	DefaultRedisKey      = "rtc"
)

// Normalize fills in defaults. It is idempotent.
func Normalize(cfg *Config) {
	if cfg.RTC.Address == 0 {
		cfg.RTC.Address = ds3231.Address
	}
	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.HTTP.Listen != "" && cfg.HTTP.MaxConns == 0 {
		cfg.HTTP.MaxConns = DefaultMaxConns
	}

	if m := cfg.Publish.MQTT; m != nil {
		if m.ClientID == "" {
			m.ClientID = DefaultMQTTClientID
		}
		if m.Topic == "" {
			m.Topic = DefaultMQTTTopic
		}
	}
	if m := cfg.Publish.Modbus; m != nil {
		if m.UnitID == 0 {
			m.UnitID = 1
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultModbusTimeout
		}
	}
	if r := cfg.Publish.Redis; r != nil && r.Key == "" {
		r.Key = DefaultRedisKey
	}
}
