// rtcd polls a DS3231, publishes every reading to the configured sinks and serves the clock over HTTP.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platinasystems/log"
	"tinygo.org/x/drivers"

	"github.com/ajanata/ds3231/ds3231"
	"github.com/ajanata/ds3231/i2cdev"
	"github.com/ajanata/ds3231/internal/config"
	"github.com/ajanata/ds3231/internal/publish"
	"github.com/ajanata/ds3231/internal/server"
	"github.com/ajanata/ds3231/internal/sim"
	"github.com/ajanata/ds3231/twi"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: rtcd CONFIG.yaml")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		log.Print("err", "rtcd: ", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	bus, closeBus, err := openBus(cfg.RTC)
	if err != nil {
		return err
	}
	defer closeBus()

	dev := ds3231.New(bus)
	dev.Address = cfg.RTC.Address
	if cfg.RTC.Init {
		if err := dev.Configure(ds3231.Config{Address: cfg.RTC.Address}); err != nil {
			return err
		}
		log.Print("info", "rtcd: clock initialized")
	}
	clock := server.NewClock(dev)

	pubs, err := dial(cfg.Publish)
	if err != nil {
		return err
	}
	defer pubs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP.Listen != "" {
		l, err := net.Listen("tcp", cfg.HTTP.Listen)
		if err != nil {
			return err
		}
		defer l.Close()
		go func() {
			if err := server.New(clock).Serve(l, cfg.HTTP.MaxConns); err != nil && ctx.Err() == nil {
				log.Print("err", "rtcd: http: ", err)
				stop()
			}
		}()
		log.Print("info", "rtcd: listening on ", l.Addr())
	}

	p := &poller{
		clock: clock,
		pub:   pubs,
		log: func(pri string, args ...interface{}) {
			log.Print(append([]interface{}{pri}, args...)...)
		},
	}
	p.run(ctx, time.Duration(cfg.Poll.IntervalMs)*time.Millisecond)
	return nil
}

func openBus(cfg config.RTCConfig) (drivers.I2C, func() error, error) {
	if cfg.Simulate {
		log.Print("info", "rtcd: using simulated clock")
		return twi.New(sim.New()), func() error { return nil }, nil
	}
	bus, err := i2cdev.Open(*cfg.Bus)
	if err != nil {
		return nil, nil, err
	}
	return bus, bus.Close, nil
}

// dial connects every configured sink, closing the ones already open on failure.
func dial(cfg config.PublishConfig) (publish.Multi, error) {
	var pubs publish.Multi
	fail := func(err error) (publish.Multi, error) {
		pubs.Close()
		return nil, err
	}

	if cfg.MQTT != nil {
		m, err := publish.DialMQTT(*cfg.MQTT)
		if err != nil {
			return fail(err)
		}
		pubs = append(pubs, m)
	}
	if cfg.Modbus != nil {
		m, err := publish.DialModbus(*cfg.Modbus)
		if err != nil {
			return fail(err)
		}
		pubs = append(pubs, m)
	}
	if cfg.Redis != nil {
		r, err := publish.DialRedis(*cfg.Redis)
		if err != nil {
			return fail(err)
		}
		pubs = append(pubs, r)
	}
	return pubs, nil
}
