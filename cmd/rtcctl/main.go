// rtcctl reads and sets a DS3231 real-time clock from a Linux host.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"tinygo.org/x/drivers"

	"github.com/ajanata/ds3231/ds3231"
	"github.com/ajanata/ds3231/i2cdev"
	"github.com/ajanata/ds3231/internal/face"
	"github.com/ajanata/ds3231/internal/ntp"
	"github.com/ajanata/ds3231/internal/sim"
	"github.com/ajanata/ds3231/twi"
)

const usage = `usage: rtcctl [-sim] [-v] [-bus N] [-addr ADDR] COMMAND [ARGS]...

COMMANDS
	init                start a temperature conversion, clear the oscillator stop flag
	get                 print the clock
	set TIME            set the clock, TIME is RFC 3339 or "now"
	sync [-ntp HOST]    set the clock from an NTP server
	32khz on|off        enable or disable the 32kHz output
	busy                print the busy flag
	lost                print the oscillator stop flag
	render -o FILE      write a PNG clock face
	script FILE         run one command per line of FILE, "-" for stdin

-sim runs against an in-memory chip; its state only lives for one invocation,
so combine it with script.`

const defaultNTP = "pool.ntp.org"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "rtcctl:", err)
		os.Exit(1)
	}
}

type ctl struct {
	dev     *ds3231.Device
	in      io.Reader
	out     io.Writer
	verbose bool
	nested  bool
}

func run(args []string, in io.Reader, out io.Writer) error {
	flag, args := flags.New(args, "-sim", "-v")
	parm, args := parms.New(args, "-bus", "-addr")
	if len(args) == 0 {
		return errors.New(usage)
	}

	bus, closeBus, err := openBus(flag.ByName["-sim"], parm.ByName["-bus"])
	if err != nil {
		return err
	}
	defer closeBus()

	dev := ds3231.New(bus)
	if s := parm.ByName["-addr"]; len(s) > 0 {
		addr, err := strconv.ParseUint(s, 0, 7)
		if err != nil {
			return fmt.Errorf("%s: invalid address: %w", s, err)
		}
		dev.Address = uint8(addr)
	}

	c := &ctl{dev: dev, in: in, out: out, verbose: flag.ByName["-v"]}
	return c.exec(args)
}

func openBus(simulate bool, index string) (drivers.I2C, func() error, error) {
	if simulate {
		return twi.New(sim.New()), func() error { return nil }, nil
	}
	if len(index) == 0 {
		return nil, nil, errors.New("-bus: missing (or use -sim)")
	}
	n, err := strconv.Atoi(index)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: invalid bus: %w", index, err)
	}
	bus, err := i2cdev.Open(n)
	if err != nil {
		return nil, nil, err
	}
	return bus, bus.Close, nil
}

func (c *ctl) exec(args []string) error {
	switch args[0] {
	case "init":
		return c.dev.Configure(ds3231.Config{Address: c.dev.Address})
	case "get":
		return c.get()
	case "set":
		if len(args) != 2 {
			return errors.New("set: TIME: missing")
		}
		return c.set(args[1])
	case "sync":
		parm, _ := parms.New(args[1:], "-ntp")
		host := parm.ByName["-ntp"]
		if len(host) == 0 {
			host = defaultNTP
		}
		return c.sync(host)
	case "32khz":
		if len(args) != 2 {
			return errors.New("32khz: on|off: missing")
		}
		switch args[1] {
		case "on":
			return c.dev.Set32kHzOutput(true)
		case "off":
			return c.dev.Set32kHzOutput(false)
		}
		return fmt.Errorf("32khz: %s: expected on or off", args[1])
	case "busy":
		busy, err := c.dev.IsBusy()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, busy)
		return nil
	case "lost":
		lost, err := c.dev.LostPower()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, lost)
		return nil
	case "render":
		parm, _ := parms.New(args[1:], "-o")
		if len(parm.ByName["-o"]) == 0 {
			return errors.New("render: -o FILE: missing")
		}
		return c.render(parm.ByName["-o"])
	case "script":
		if len(args) != 2 {
			return errors.New("script: FILE: missing")
		}
		if c.nested {
			return errors.New("script: nested scripts are not supported")
		}
		return c.script(args[1])
	}
	return fmt.Errorf("%s: unknown command\n%s", args[0], usage)
}

func (c *ctl) get() error {
	var dt ds3231.DateTime
	if err := c.dev.ReadDateTime(&dt); err != nil {
		return err
	}
	if c.verbose {
		fmt.Fprintln(c.out, dt)
	}
	fmt.Fprintf(c.out, "%s wday=%d\n", dt.Time().Format(time.RFC3339), dt.Weekday)
	return nil
}

func (c *ctl) set(s string) error {
	t := time.Now().UTC()
	if s != "now" {
		var err error
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("set: %w", err)
		}
	}
	return c.dev.Set(t)
}

func (c *ctl) sync(host string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t, err := ntp.Query(ctx, host)
	if err != nil {
		return fmt.Errorf("sync: %s: %w", host, err)
	}
	if c.verbose {
		fmt.Fprintln(c.out, "ntp:", t.Format(time.RFC3339Nano))
	}
	return c.dev.Set(t)
}

func (c *ctl) render(path string) error {
	var dt ds3231.DateTime
	if err := c.dev.ReadDateTime(&dt); err != nil {
		return err
	}
	img, err := face.Render(dt)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *ctl) script(path string) error {
	r := c.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	c.nested = true
	defer func() { c.nested = false }()

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		args, err := shlex.Split(sc.Text())
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if len(args) == 0 {
			continue
		}
		if err := c.exec(args); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	return sc.Err()
}
