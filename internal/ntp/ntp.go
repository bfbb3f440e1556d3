// Package ntp fetches the current time from an NTP server with a single SNTP request.
package ntp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	packetSize = 48
	// seconds between the NTP epoch (1900) and the Unix epoch
	seventyYears = 2208988800
)

// Query asks the server at addr for the current time. A missing port defaults to 123. Without a context deadline
// the exchange gives up after one second.
func Query(ctx context.Context, addr string) (time.Time, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "123")
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Second)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return time.Time{}, err
	}

	b := make([]byte, packetSize)
	request(b)
	if _, err := conn.Write(b); err != nil {
		return time.Time{}, fmt.Errorf("error sending NTP packet: %w", err)
	}
	n, err := conn.Read(b)
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading UDP packet: %w", err)
	}
	if n != packetSize {
		return time.Time{}, fmt.Errorf("expected NTP packet size of %d: %d", packetSize, n)
	}
	return parse(b)
}

func request(b []byte) {
	for i := range b {
		b[i] = 0
	}
	b[0] = 0b11100011 // LI, Version, Mode
	b[1] = 0          // Stratum, or type of clock
	b[2] = 6          // Polling Interval
	b[3] = 0xEC       // Peer Clock Precision
	// 8 bytes of zero for Root Delay & Root Dispersion
	b[12] = 49
	b[13] = 0x4E
	b[14] = 49
	b[15] = 52
}

func parse(b []byte) (time.Time, error) {
	// mode 4 is a server reply
	if b[0]&0x07 != 4 {
		return time.Time{}, errors.New("not an NTP server reply")
	}
	// the transmit timestamp starts at byte 40 and is four bytes of seconds since Jan 1 1900, then four bytes of
	// fraction
	secs := uint32(b[40])<<24 | uint32(b[41])<<16 | uint32(b[42])<<8 | uint32(b[43])
	if secs == 0 {
		return time.Time{}, errors.New("empty NTP transmit timestamp")
	}
	frac := uint32(b[44])<<24 | uint32(b[45])<<16 | uint32(b[46])<<8 | uint32(b[47])
	nsec := int64(frac) * 1e9 >> 32
	return time.Unix(int64(secs)-seventyYears, nsec).UTC(), nil
}
