// Package config loads the rtcd configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	RTC     RTCConfig     `yaml:"rtc"`
	Poll    PollConfig    `yaml:"poll"`
	HTTP    HTTPConfig    `yaml:"http"`
	Publish PublishConfig `yaml:"publish"`
}

// ---- CLOCK ----

type RTCConfig struct {
	// Bus selects /dev/i2c-N. Required unless Simulate is set.
	Bus      *int  `yaml:"bus"`
	Address  uint8 `yaml:"address"`
	Simulate bool  `yaml:"simulate"`
	// Init runs the chip initialization sequence on startup.
	Init bool `yaml:"init"`
}

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

type HTTPConfig struct {
	// Listen is empty to disable the HTTP server.
	Listen   string `yaml:"listen"`
	MaxConns int    `yaml:"max_conns"`
}

// ---- SINKS (all optional) ----

type PublishConfig struct {
	MQTT   *MQTTConfig   `yaml:"mqtt"`
	Modbus *ModbusConfig `yaml:"modbus"`
	Redis  *RedisConfig  `yaml:"redis"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retained bool   `yaml:"retained"`
}

type ModbusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	Address   uint16 `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type RedisConfig struct {
	Address string `yaml:"address"`
	Key     string `yaml:"key"`
}

// Load reads, normalizes and validates the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a YAML document, rejecting unknown keys.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
