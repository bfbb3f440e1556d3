package main

import (
	"context"
	"time"

	"github.com/ajanata/ds3231/internal/publish"
	"github.com/ajanata/ds3231/internal/server"
)

// poller reads the clock on every tick and hands the reading to pub. Errors are logged when they first appear and
// when they clear, not on every tick.
type poller struct {
	clock *server.Clock
	pub   publish.Publisher
	// log takes a priority such as "err" or "info" ahead of the message.
	log   func(pri string, args ...interface{})
	now   func() time.Time

	readErr string
	pubErr  string
}

func (p *poller) run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	p.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.poll()
		}
	}
}

func (p *poller) poll() {
	r, err := p.read()
	if p.track(&p.readErr, "read", err) {
		return
	}
	p.track(&p.pubErr, "publish", p.pub.Publish(r))
}

func (p *poller) read() (publish.Reading, error) {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	r := publish.Reading{Polled: now()}

	dt, err := p.clock.Read()
	if err != nil {
		return r, err
	}
	st, err := p.clock.Status()
	if err != nil {
		return r, err
	}
	r.DateTime = dt
	r.LostPower = st.LostPower
	return r, nil
}

// track logs changes of the error state kept in last and reports whether err is set.
func (p *poller) track(last *string, what string, err error) bool {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg != *last {
		if err != nil {
			p.log("err", "rtcd: ", what, ": ", err)
		} else {
			p.log("info", "rtcd: ", what, ": recovered")
		}
		*last = msg
	}
	return err != nil
}
