// Package bcd converts between binary values and packed binary-coded decimal
// bytes as stored in RTC time registers.
package bcd

// Decode converts a packed BCD byte to its binary value. The tens digit is
// taken from bits 4-6 and the units digit from bits 0-3. Bit 7 is ignored,
// since clock chips use it for flags such as century or AM/PM.
func Decode(b uint8) uint8 {
	return DecodeByte(b & 0x7F)
}

// DecodeByte is like Decode but takes the tens digit from all of bits 4-7, for
// registers such as the year that hold values up to 99.
func DecodeByte(b uint8) uint8 {
	return (b>>4)*10 + b&0x0F
}

// Encode converts a binary value to packed BCD. Values in 0-99 round trip
// through DecodeByte, and values in 0-79 also through Decode; anything larger
// yields an undefined pattern.
func Encode(v uint8) uint8 {
	var out uint16
	n := uint16(v)
	for shift := 0; shift < 16; shift += 4 {
		out |= (n % 10) << shift
		n /= 10
	}
	return uint8(out)
}
