package server_test

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/ds3231/ds3231"
	"github.com/ajanata/ds3231/internal/server"
	"github.com/ajanata/ds3231/internal/sim"
	"github.com/ajanata/ds3231/twi"
)

func newServer() (*server.Server, *server.Clock, *sim.Chip) {
	chip := sim.New()
	clock := server.NewClock(ds3231.New(twi.New(chip)))
	return server.New(clock), clock, chip
}

func do(c *qt.C, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]interface{}
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &out), qt.IsNil, qt.Commentf("body %q", rec.Body.String()))
	return rec.Code, out
}

func TestGetTime(t *testing.T) {
	c := qt.New(t)
	srv, _, chip := newServer()
	copy(chip.Registers[:], []byte{0x30, 0x15, 0x09, 0x03, 0x20, 0x06, 0x24})

	code, body := do(c, srv, "GET", "/time", "")
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(body["time"], qt.Equals, "2024-06-20T09:15:30Z")
	c.Assert(body["weekday"], qt.Equals, 3.0)
	c.Assert(body["century"], qt.Equals, false)
}

func TestPutTimeRFC3339(t *testing.T) {
	c := qt.New(t)
	srv, _, chip := newServer()

	code, body := do(c, srv, "PUT", "/time", `{"time":"2006-01-02T15:04:05Z"}`)
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(body["weekday"], qt.Equals, 2.0)
	c.Assert(chip.Registers[:7], qt.DeepEquals, []byte{0x05, 0x04, 0x15, 0x02, 0x02, 0x01, 0x06})
}

func TestPutTimeFields(t *testing.T) {
	c := qt.New(t)
	srv, clock, _ := newServer()

	code, _ := do(c, srv, "PUT", "/time",
		`{"second":30,"minute":15,"hour":9,"weekday":7,"day":20,"month":6,"year":24}`)
	c.Assert(code, qt.Equals, http.StatusOK)

	dt, err := clock.Read()
	c.Assert(err, qt.IsNil)
	c.Assert(dt, qt.Equals, ds3231.DateTime{Second: 30, Minute: 15, Hour: 9, Weekday: 7, Day: 20, Month: 6, Year: 24})
}

func TestPutTimeBadRequest(t *testing.T) {
	c := qt.New(t)
	srv, _, _ := newServer()

	for _, body := range []string{
		`{"time":"yesterday"}`,
		`{"time":"1999-12-31T23:59:59Z"}`,
		`{"hours":3}`,
		`not json`,
	} {
		code, out := do(c, srv, "PUT", "/time", body)
		c.Assert(code, qt.Equals, http.StatusBadRequest, qt.Commentf("body %s", body))
		c.Assert(out["error"], qt.Not(qt.Equals), "")
	}
}

func TestStatus(t *testing.T) {
	c := qt.New(t)
	srv, _, chip := newServer()
	chip.Registers[ds3231.Status] = 1<<ds3231.OSF | 1<<ds3231.BSY

	code, body := do(c, srv, "GET", "/status", "")
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(body, qt.DeepEquals, map[string]interface{}{"lost_power": true, "busy": true})
}

func TestBusFailure(t *testing.T) {
	c := qt.New(t)
	srv, _, chip := newServer()
	chip.Fail(1, errors.New("bus stuck low"))

	code, body := do(c, srv, "GET", "/time", "")
	c.Assert(code, qt.Equals, http.StatusBadGateway)
	c.Assert(body["error"], qt.Matches, ".*bus stuck low")
}

func TestMethodNotAllowed(t *testing.T) {
	c := qt.New(t)
	srv, _, _ := newServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("DELETE", "/time", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusMethodNotAllowed)
}

func TestClockSerializesCallers(t *testing.T) {
	c := qt.New(t)
	_, clock, _ := newServer()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errs <- clock.Write(ds3231.DateTime{Second: uint8(i), Day: 1, Month: 1})
		}(i)
		go func() {
			defer wg.Done()
			_, err := clock.Read()
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		c.Assert(err, qt.IsNil)
	}
}

func TestServe(t *testing.T) {
	c := qt.New(t)
	srv, _, _ := newServer()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, qt.IsNil)
	go srv.Serve(l, 2)
	defer l.Close()

	resp, err := http.Get("http://" + l.Addr().String() + "/status")
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
	c.Assert(resp.Header.Get("Content-Type"), qt.Equals, "application/json")
}
