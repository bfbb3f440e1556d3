package ds3231

const (
	Address = 0x68 // I2C address for DS3231

	Seconds        = 0x00 // Time registers starting with seconds
	Minutes        = 0x01
	Hours          = 0x02
	Weekday        = 0x03 // Date registers starting with day of week
	Date           = 0x04
	Month          = 0x05 // Month, bit 7 holds the century flag
	Year           = 0x06
	Alarm1Seconds  = 0x07
	Alarm1Minutes  = 0x08
	Alarm1Hours    = 0x09
	Alarm1Day      = 0x0A
	Alarm2Minutes  = 0x0B
	Alarm2Hours    = 0x0C
	Alarm2Day      = 0x0D
	Alarm2Date     = 0x0E
	Control        = 0x0F // Control register
	Status         = 0x10 // Control/status register
	AgingOffset    = 0x11 // Aging offset register
	TemperatureMSB = 0x12
	TemperatureLSB = 0x13

	NumRegisters = TemperatureLSB + 1
)

// Control register bits
const (
	A1IE  = 0 // alarm 1 interrupt enable
	A2IE  = 1 // alarm 2 interrupt enable
	INTCN = 2 // interrupt control
	RS1   = 3 // rate select 1
	RS2   = 4 // rate select 2
	CONV  = 5 // convert temperature
	BBSQW = 6 // battery-backed square wave enable
	EOSC  = 7 // enable oscillator, active low
)

// Status register bits
const (
	A1F     = 0 // alarm 1 flag
	A2F     = 1 // alarm 2 flag
	BSY     = 2 // busy
	EN32KHZ = 3 // enable 32kHz output
	OSF     = 7 // oscillator stop flag
)

const (
	centuryFlag = 0x80
	monthMask   = 0x1F
)
