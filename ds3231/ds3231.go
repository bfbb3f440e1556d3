// Package ds3231 implements a driver for the DS3231 Real-Time Clock (RTC), providing read-write of the time and date
// registers, the 32kHz output enable and the busy flag. The DS3231 itself supports alarms, an aging offset and a
// temperature sensor, but those features remain unimplemented.
//
// Every operation is a fixed sequence of bus transactions: a register pointer write followed by a read, or a single
// write burst. The driver keeps no state besides its address and does no locking; callers sharing a bus must
// serialize access themselves.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/DS3231.pdf
package ds3231

import (
	"time"

	"tinygo.org/x/drivers"

	"github.com/ajanata/ds3231/bcd"
)

type Device struct {
	bus     drivers.I2C
	Address uint8
}

type Config struct {
	Address uint8
}

// New creates a new driver on the specified preconfigured I2C bus, using the default address.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure sets the chip address and initializes the chip: a temperature conversion is started and the oscillator
// stop flag is cleared. Nothing is written when the status register cannot be read.
func (d *Device) Configure(c Config) error {
	if c.Address == 0 {
		c.Address = Address
	}
	d.Address = c.Address

	status, err := d.status("configure")
	if err != nil {
		return err
	}
	// control and status are adjacent, one burst covers both
	return d.write("configure", Control, []byte{1 << CONV, status &^ (1 << OSF)})
}

// ReadTime fills the second, minute and hour fields of dt.
func (d *Device) ReadTime(dt *DateTime) error {
	var buf [3]byte
	if err := d.read("read time", Seconds, buf[:]); err != nil {
		return err
	}
	dt.Second = bcd.Decode(buf[0])
	dt.Minute = bcd.Decode(buf[1])
	dt.Hour = bcd.Decode(buf[2])
	return nil
}

// ReadDate fills the weekday, day, month, year and century fields of dt.
func (d *Device) ReadDate(dt *DateTime) error {
	var buf [4]byte
	if err := d.read("read date", Weekday, buf[:]); err != nil {
		return err
	}
	decodeDate(dt, buf[:])
	return nil
}

// ReadDateTime fills every field of dt from a single 7-byte read.
func (d *Device) ReadDateTime(dt *DateTime) error {
	var buf [7]byte
	if err := d.read("read datetime", Seconds, buf[:]); err != nil {
		return err
	}
	dt.Second = bcd.Decode(buf[0])
	dt.Minute = bcd.Decode(buf[1])
	dt.Hour = bcd.Decode(buf[2])
	decodeDate(dt, buf[3:])
	return nil
}

func decodeDate(dt *DateTime, buf []byte) {
	dt.Weekday = bcd.Decode(buf[0])
	dt.Day = bcd.Decode(buf[1])
	dt.Month = bcd.Decode(buf[2] & monthMask)
	// the year register has no flag bit
	dt.Year = bcd.DecodeByte(buf[3])
	dt.Century = buf[2]&centuryFlag != 0
}

// WriteTime overwrites the second, minute and hour registers.
func (d *Device) WriteTime(dt DateTime) error {
	return d.write("write time", Seconds, []byte{
		bcd.Encode(dt.Second),
		bcd.Encode(dt.Minute),
		bcd.Encode(dt.Hour),
	})
}

// WriteDate overwrites the weekday, day, month and year registers. The century flag is cleared.
func (d *Device) WriteDate(dt DateTime) error {
	var buf [4]byte
	encodeDate(buf[:], dt)
	return d.write("write date", Weekday, buf[:])
}

// WriteDateTime overwrites all seven time-keeping registers in one burst, so the chip never holds a mix of old and
// new values. The century flag is cleared.
func (d *Device) WriteDateTime(dt DateTime) error {
	buf := [7]byte{
		bcd.Encode(dt.Second),
		bcd.Encode(dt.Minute),
		bcd.Encode(dt.Hour),
	}
	encodeDate(buf[3:], dt)
	return d.write("write datetime", Seconds, buf[:])
}

func encodeDate(buf []byte, dt DateTime) {
	buf[0] = bcd.Encode(dt.Weekday)
	buf[1] = bcd.Encode(dt.Day)
	// bit 7 of the month register is the century flag
	buf[2] = bcd.Encode(dt.Month) & monthMask
	buf[3] = bcd.Encode(dt.Year)
}

// Set32kHzOutput enables or disables the 32kHz output pin, leaving the other status bits untouched.
func (d *Device) Set32kHzOutput(enable bool) error {
	status, err := d.status("set 32kHz output")
	if err != nil {
		return err
	}
	if enable {
		status |= 1 << EN32KHZ
	} else {
		status &^= 1 << EN32KHZ
	}
	return d.write("set 32kHz output", Status, []byte{status})
}

// IsBusy reports whether the chip is executing a temperature conversion.
func (d *Device) IsBusy() (bool, error) {
	status, err := d.status("is busy")
	if err != nil {
		return false, err
	}
	return status&(1<<BSY) != 0, nil
}

// LostPower reports whether the oscillator stopped at some point since the flag was last cleared by Configure,
// which means the clock can no longer be trusted.
func (d *Device) LostPower() (bool, error) {
	status, err := d.status("lost power")
	if err != nil {
		return false, err
	}
	return status&(1<<OSF) != 0, nil
}

// ReadCentury reports the century rollover flag.
func (d *Device) ReadCentury() (bool, error) {
	var buf [1]byte
	if err := d.read("read century", Month, buf[:]); err != nil {
		return false, err
	}
	return buf[0]&centuryFlag != 0, nil
}

// Now reads the current time.
func (d *Device) Now() (time.Time, error) {
	var dt DateTime
	if err := d.ReadDateTime(&dt); err != nil {
		return time.Time{}, err
	}
	return dt.Time(), nil
}

// Set writes t to the clock. It returns an error if t is not within the 21st century.
func (d *Device) Set(t time.Time) error {
	if t.Year() < 2000 || t.Year() > 2099 {
		return errYearOutOfRange
	}
	return d.WriteDateTime(FromTime(t))
}

func (d *Device) status(op string) (uint8, error) {
	var buf [1]byte
	err := d.read(op, Status, buf[:])
	return buf[0], err
}

func (d *Device) read(op string, reg uint8, buf []byte) error {
	if err := d.bus.Tx(uint16(d.Address), []byte{reg}, buf); err != nil {
		return &BusError{Op: op, Reg: reg, Err: err}
	}
	return nil
}

func (d *Device) write(op string, reg uint8, data []byte) error {
	var buf [8]byte
	buf[0] = reg
	n := copy(buf[1:], data)
	if err := d.bus.Tx(uint16(d.Address), buf[:n+1], nil); err != nil {
		return &BusError{Op: op, Reg: reg, Err: err}
	}
	return nil
}
