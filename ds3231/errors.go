package ds3231

import (
	"errors"
	"fmt"
)

// ErrBusFailure matches every error returned by a failed bus transaction.
var ErrBusFailure = errors.New("ds3231: bus failure")

var errYearOutOfRange = errors.New("ds3231: year out of range")

// BusError records the operation and register pointer of a failed
// transaction. The chip's register pointer is left wherever the bus
// stopped; no attempt is made to resynchronize it.
type BusError struct {
	Op  string
	Reg uint8
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("ds3231: %s (register %#02x): %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

func (e *BusError) Is(target error) bool { return target == ErrBusFailure }
