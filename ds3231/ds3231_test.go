package ds3231_test

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/ds3231/ds3231"
	"github.com/ajanata/ds3231/internal/sim"
	"github.com/ajanata/ds3231/twi"
)

var errBus = errors.New("arbitration lost")

func newDevice() (*ds3231.Device, *sim.Chip) {
	chip := sim.New()
	dev := ds3231.New(twi.New(chip))
	return dev, chip
}

func TestConfigure(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	chip.Registers[ds3231.Status] |= 1 << ds3231.A1F

	c.Assert(dev.Configure(ds3231.Config{}), qt.IsNil)
	c.Assert(dev.Address, qt.Equals, uint8(ds3231.Address))
	c.Assert(chip.Registers[ds3231.Control], qt.Equals, uint8(1<<ds3231.CONV))
	// only the oscillator stop flag is cleared
	c.Assert(chip.Registers[ds3231.Status], qt.Equals, uint8(1<<ds3231.EN32KHZ|1<<ds3231.A1F))

	lost, err := dev.LostPower()
	c.Assert(err, qt.IsNil)
	c.Assert(lost, qt.Equals, false)
}

func TestConfigureAddress(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	chip.Address = 0x57

	err := dev.Configure(ds3231.Config{Address: 0x57})
	c.Assert(err, qt.IsNil)
	c.Assert(dev.Address, qt.Equals, uint8(0x57))
	c.Assert(chip.Trace[0], qt.Equals, "S57W")
}

func TestConfigureStartFailure(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	before := chip.Registers
	chip.Fail(1, errBus)

	err := dev.Configure(ds3231.Config{})
	c.Assert(errors.Is(err, ds3231.ErrBusFailure), qt.Equals, true)
	c.Assert(errors.Is(err, errBus), qt.Equals, true)
	c.Assert(chip.Registers, qt.Equals, before)

	var be *ds3231.BusError
	c.Assert(errors.As(err, &be), qt.Equals, true)
	c.Assert(be.Reg, qt.Equals, uint8(ds3231.Status))
	c.Assert(be.Op, qt.Equals, "configure")
}

func TestWrongAddress(t *testing.T) {
	c := qt.New(t)
	dev, _ := newDevice()
	dev.Address = 0x50

	var dt ds3231.DateTime
	err := dev.ReadDateTime(&dt)
	c.Assert(errors.Is(err, ds3231.ErrBusFailure), qt.Equals, true)
	c.Assert(errors.Is(err, sim.ErrNack), qt.Equals, true)
}

func TestReadTime(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	copy(chip.Registers[:], []byte{0x45, 0x59, 0x23})

	dt := ds3231.DateTime{Day: 17}
	c.Assert(dev.ReadTime(&dt), qt.IsNil)
	c.Assert(dt, qt.Equals, ds3231.DateTime{Second: 45, Minute: 59, Hour: 23, Day: 17})
	c.Assert(chip.Trace, qt.DeepEquals, []string{"S68W", "W00", "P", "S68R", "RA", "RA", "RN", "P"})
}

func TestReadDate(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	copy(chip.Registers[ds3231.Weekday:], []byte{0x07, 0x31, 0x92, 0x99})

	dt := ds3231.DateTime{Second: 5}
	c.Assert(dev.ReadDate(&dt), qt.IsNil)
	c.Assert(dt, qt.Equals, ds3231.DateTime{
		Second:  5,
		Weekday: 7,
		Day:     31,
		Month:   12,
		Year:    99,
		Century: true,
	})
	c.Assert(chip.Trace, qt.DeepEquals, []string{"S68W", "W03", "P", "S68R", "RA", "RA", "RA", "RN", "P"})
}

func TestReadDateTime(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	copy(chip.Registers[:], []byte{0x30, 0x15, 0x09, 0x03, 0x20, 0x06, 0x24})

	var dt ds3231.DateTime
	c.Assert(dev.ReadDateTime(&dt), qt.IsNil)
	c.Assert(dt, qt.Equals, ds3231.DateTime{
		Second: 30, Minute: 15, Hour: 9, Weekday: 3, Day: 20, Month: 6, Year: 24,
	})
}

func TestWriteTime(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()

	err := dev.WriteTime(ds3231.DateTime{Second: 7, Minute: 42, Hour: 18, Day: 9})
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Registers[:4], qt.DeepEquals, []byte{0x07, 0x42, 0x18, 0x01})
	c.Assert(chip.Trace, qt.DeepEquals, []string{"S68W", "W00", "W07", "W42", "W18", "P"})
}

func TestWriteDate(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()

	err := dev.WriteDate(ds3231.DateTime{Second: 33, Weekday: 2, Day: 29, Month: 2, Year: 24})
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Registers[ds3231.Seconds], qt.Equals, uint8(0))
	c.Assert(chip.Registers[ds3231.Weekday:ds3231.Year+1], qt.DeepEquals, []byte{0x02, 0x29, 0x02, 0x24})
	c.Assert(chip.Trace[1], qt.Equals, "W03")
}

func TestWriteDateMasksMonth(t *testing.T) {
	c := qt.New(t)

	c.Run("in mask", func(c *qt.C) {
		dev, chip := newDevice()
		c.Assert(dev.WriteDate(ds3231.DateTime{Month: 13}), qt.IsNil)
		c.Assert(chip.Registers[ds3231.Month], qt.Equals, uint8(0x13))
	})

	c.Run("bit 7", func(c *qt.C) {
		dev, chip := newDevice()
		chip.Registers[ds3231.Month] = 0x81
		// 80 encodes to 0x80, which would set the century flag
		c.Assert(dev.WriteDate(ds3231.DateTime{Month: 80}), qt.IsNil)
		c.Assert(chip.Registers[ds3231.Month], qt.Equals, uint8(0x80&0x1F))

		century, err := dev.ReadCentury()
		c.Assert(err, qt.IsNil)
		c.Assert(century, qt.Equals, false)
	})

	c.Run("datetime", func(c *qt.C) {
		dev, chip := newDevice()
		c.Assert(dev.WriteDateTime(ds3231.DateTime{Month: 92}), qt.IsNil)
		c.Assert(chip.Registers[ds3231.Month], qt.Equals, uint8(0x92&0x1F))
	})
}

func TestWriteDateTimeIsOneBurst(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()

	err := dev.WriteDateTime(ds3231.DateTime{Second: 1, Minute: 2, Hour: 3, Weekday: 4, Day: 5, Month: 6, Year: 7})
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Trace, qt.DeepEquals, []string{
		"S68W", "W00", "W01", "W02", "W03", "W04", "W05", "W06", "W07", "P",
	})
}

func TestDateTimeRoundTrip(t *testing.T) {
	c := qt.New(t)
	dev, _ := newDevice()

	want := ds3231.DateTime{Second: 30, Minute: 15, Hour: 9, Weekday: 3, Day: 20, Month: 6, Year: 24}
	c.Assert(dev.WriteDateTime(want), qt.IsNil)

	var got ds3231.DateTime
	c.Assert(dev.ReadDateTime(&got), qt.IsNil)
	c.Assert(got, qt.Equals, want)

	var split ds3231.DateTime
	c.Assert(dev.ReadTime(&split), qt.IsNil)
	c.Assert(dev.ReadDate(&split), qt.IsNil)
	c.Assert(split, qt.Equals, want)
}

func TestLateCenturyYears(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()

	for year := uint8(80); year <= 99; year++ {
		want := ds3231.DateTime{Second: 1, Minute: 2, Hour: 3, Weekday: 4, Day: 5, Month: 6, Year: year}
		c.Assert(dev.WriteDateTime(want), qt.IsNil)
		c.Assert(chip.Registers[ds3231.Year], qt.Equals, uint8(0x80|(year-80)/10<<4|year%10))

		var got ds3231.DateTime
		c.Assert(dev.ReadDateTime(&got), qt.IsNil)
		c.Assert(got, qt.Equals, want)

		var date ds3231.DateTime
		c.Assert(dev.ReadDate(&date), qt.IsNil)
		c.Assert(date.Year, qt.Equals, year)
	}

	set := time.Date(2085, 7, 4, 12, 30, 0, 0, time.UTC)
	c.Assert(dev.Set(set), qt.IsNil)
	got, err := dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, set)
}

func TestWeekdayIsOpaque(t *testing.T) {
	c := qt.New(t)
	dev, _ := newDevice()

	for wday := uint8(1); wday <= 7; wday++ {
		c.Assert(dev.WriteDate(ds3231.DateTime{Weekday: wday, Day: 1, Month: 1}), qt.IsNil)
		var dt ds3231.DateTime
		c.Assert(dev.ReadDate(&dt), qt.IsNil)
		c.Assert(dt.Weekday, qt.Equals, wday)
	}
}

func TestSet32kHzOutput(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	const others = 1<<ds3231.OSF | 1<<ds3231.BSY | 1<<ds3231.A2F

	chip.Registers[ds3231.Status] = others
	c.Assert(dev.Set32kHzOutput(true), qt.IsNil)
	c.Assert(chip.Registers[ds3231.Status], qt.Equals, uint8(others|1<<ds3231.EN32KHZ))

	c.Assert(dev.Set32kHzOutput(false), qt.IsNil)
	c.Assert(chip.Registers[ds3231.Status], qt.Equals, uint8(others))

	c.Assert(dev.Set32kHzOutput(false), qt.IsNil)
	c.Assert(chip.Registers[ds3231.Status], qt.Equals, uint8(others))
}

func TestSet32kHzOutputWriteFailure(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	chip.Registers[ds3231.Status] = 0
	// status read takes two starts, the write is the third
	chip.Fail(3, errBus)

	err := dev.Set32kHzOutput(true)
	c.Assert(errors.Is(err, ds3231.ErrBusFailure), qt.Equals, true)
	c.Assert(err, qt.ErrorMatches, `ds3231: set 32kHz output \(register 0x10\): twi: start 0x68 write: arbitration lost`)
	c.Assert(chip.Registers[ds3231.Status], qt.Equals, uint8(0))
}

func TestIsBusy(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()

	busy, err := dev.IsBusy()
	c.Assert(err, qt.IsNil)
	c.Assert(busy, qt.Equals, false)

	chip.Registers[ds3231.Status] |= 1 << ds3231.BSY
	busy, err = dev.IsBusy()
	c.Assert(err, qt.IsNil)
	c.Assert(busy, qt.Equals, true)

	chip.Fail(2, errBus)
	_, err = dev.IsBusy()
	c.Assert(errors.Is(err, ds3231.ErrBusFailure), qt.Equals, true)
}

func TestLostPower(t *testing.T) {
	c := qt.New(t)
	dev, _ := newDevice()

	lost, err := dev.LostPower()
	c.Assert(err, qt.IsNil)
	c.Assert(lost, qt.Equals, true)
}

func TestNowAndSet(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()

	want := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	c.Assert(dev.Set(want), qt.IsNil)
	// January 2nd 2006 was a Monday
	c.Assert(chip.Registers[ds3231.Weekday], qt.Equals, uint8(2))

	got, err := dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, want)

	err = dev.Set(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Assert(err, qt.ErrorMatches, "ds3231: year out of range")
}

func TestNowCentury(t *testing.T) {
	c := qt.New(t)
	dev, chip := newDevice()
	copy(chip.Registers[:], []byte{0x00, 0x00, 0x00, 0x06, 0x01, 0x81, 0x00})

	got, err := dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
}
