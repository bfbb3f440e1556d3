// Package publish delivers clock readings to external systems. Every sink is optional and independent; a failing
// sink does not stop the others.
package publish

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ajanata/ds3231/ds3231"
)

// Reading is one poll of the clock.
type Reading struct {
	DateTime  ds3231.DateTime
	LostPower bool
	// Polled is the host time the reading was taken at.
	Polled time.Time
}

type Publisher interface {
	Publish(r Reading) error
	Close() error
}

// Multi fans a reading out to several publishers.
type Multi []Publisher

func (m Multi) Publish(r Reading) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type payload struct {
	Time      string `json:"time"`
	Weekday   uint8  `json:"weekday"`
	Century   bool   `json:"century"`
	LostPower bool   `json:"lost_power"`
	Polled    string `json:"polled"`
}

func encode(r Reading) ([]byte, error) {
	return json.Marshal(payload{
		Time:      r.DateTime.Time().Format(time.RFC3339),
		Weekday:   r.DateTime.Weekday,
		Century:   r.DateTime.Century,
		LostPower: r.LostPower,
		Polled:    r.Polled.UTC().Format(time.RFC3339Nano),
	})
}

// registers lays the reading out as seven holding registers: second, minute, hour, weekday, day, month and the
// full year.
func registers(r Reading) []uint16 {
	dt := r.DateTime
	return []uint16{
		uint16(dt.Second),
		uint16(dt.Minute),
		uint16(dt.Hour),
		uint16(dt.Weekday),
		uint16(dt.Day),
		uint16(dt.Month),
		uint16(dt.Time().Year()),
	}
}
