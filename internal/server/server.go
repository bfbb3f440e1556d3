// Package server exposes a DS3231 over HTTP with JSON bodies:
//
//	GET /time    current clock registers
//	PUT /time    set the clock, from an RFC 3339 "time" or from raw fields
//	GET /status  lost power and busy flags
package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/ajanata/ds3231/ds3231"
)

// Device is the subset of *ds3231.Device the server needs.
type Device interface {
	ReadDateTime(dt *ds3231.DateTime) error
	WriteDateTime(dt ds3231.DateTime) error
	LostPower() (bool, error)
	IsBusy() (bool, error)
}

// Clock serializes access to a device shared by several goroutines. The driver does no locking of its own.
type Clock struct {
	mu  sync.Mutex
	dev Device
}

func NewClock(dev Device) *Clock {
	return &Clock{dev: dev}
}

func (c *Clock) Read() (ds3231.DateTime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dt ds3231.DateTime
	err := c.dev.ReadDateTime(&dt)
	return dt, err
}

func (c *Clock) Write(dt ds3231.DateTime) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.WriteDateTime(dt)
}

type Status struct {
	LostPower bool `json:"lost_power"`
	Busy      bool `json:"busy"`
}

func (c *Clock) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		s   Status
		err error
	)
	if s.LostPower, err = c.dev.LostPower(); err != nil {
		return s, err
	}
	s.Busy, err = c.dev.IsBusy()
	return s, err
}

type Server struct {
	clock *Clock
	mux   *http.ServeMux
}

func New(clock *Clock) *Server {
	s := &Server{clock: clock, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /time", s.getTime)
	s.mux.HandleFunc("PUT /time", s.putTime)
	s.mux.HandleFunc("GET /status", s.getStatus)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve accepts at most maxConns concurrent connections on l; zero means no limit.
func (s *Server) Serve(l net.Listener, maxConns int) error {
	if maxConns > 0 {
		l = netutil.LimitListener(l, maxConns)
	}
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.Serve(l)
}

type timeBody struct {
	// Time, when set on PUT, takes precedence over the fields.
	Time    string `json:"time,omitempty"`
	Second  uint8  `json:"second"`
	Minute  uint8  `json:"minute"`
	Hour    uint8  `json:"hour"`
	Weekday uint8  `json:"weekday"`
	Day     uint8  `json:"day"`
	Month   uint8  `json:"month"`
	Year    uint8  `json:"year"`
	Century bool   `json:"century"`
}

func fromDateTime(dt ds3231.DateTime) timeBody {
	return timeBody{
		Time:    dt.Time().Format(time.RFC3339),
		Second:  dt.Second,
		Minute:  dt.Minute,
		Hour:    dt.Hour,
		Weekday: dt.Weekday,
		Day:     dt.Day,
		Month:   dt.Month,
		Year:    dt.Year,
		Century: dt.Century,
	}
}

func (b timeBody) dateTime() (ds3231.DateTime, error) {
	if b.Time != "" {
		t, err := time.Parse(time.RFC3339, b.Time)
		if err != nil {
			return ds3231.DateTime{}, err
		}
		if t.Year() < 2000 || t.Year() > 2099 {
			return ds3231.DateTime{}, errors.New("year out of range")
		}
		return ds3231.FromTime(t), nil
	}
	// raw fields go to the chip as given
	return ds3231.DateTime{
		Second:  b.Second,
		Minute:  b.Minute,
		Hour:    b.Hour,
		Weekday: b.Weekday,
		Day:     b.Day,
		Month:   b.Month,
		Year:    b.Year,
	}, nil
}

func (s *Server) getTime(w http.ResponseWriter, r *http.Request) {
	dt, err := s.clock.Read()
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromDateTime(dt))
}

func (s *Server) putTime(w http.ResponseWriter, r *http.Request) {
	var body timeBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	dt, err := body.dateTime()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	if err := s.clock.Write(dt); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromDateTime(dt))
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.clock.Status()
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type errorBody struct {
	Error string `json:"error"`
}

// httpError maps bus failures to 502 Bad Gateway.
func httpError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, ds3231.ErrBusFailure) {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, errorBody{err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
