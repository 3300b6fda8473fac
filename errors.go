package biogas

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmpty is returned by Buffer.Latest when nothing has been pushed yet.
	ErrEmpty = errors.New("buffer empty")

	// ErrAlreadyRunning is returned by Start on a producer that is not
	// idle or stopped.
	ErrAlreadyRunning = errors.New("producer already running")

	// ErrNotRunning is returned by Stop on a producer that was never started.
	ErrNotRunning = errors.New("producer not running")

	// ErrPortClosed is returned by Port reads after Close.
	ErrPortClosed = errors.New("serial port closed")

	// ErrReadTimeout is returned by Port.ReadLine when no complete line
	// arrived within the read timeout.
	ErrReadTimeout = errors.New("serial read timeout")

	// ErrDeviceHangup is returned by Port reads when the device side of
	// the link went away (unplugged, or a pty whose master closed).
	ErrDeviceHangup = errors.New("serial device hangup")
)

// OutOfOrderError reports a push whose timestamp does not advance past the
// buffer's latest Reading. The producer is expected to re-stamp and retry.
type OutOfOrderError struct {
	Last time.Time
	New  time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("out-of-order reading: %s is not after %s",
		e.New.Format(time.RFC3339Nano), e.Last.Format(time.RFC3339Nano))
}

// ParseError reports a serial line that could not be converted into a
// Reading. The line is dropped and counted, never fatal to the producer.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Line, e.Reason)
}

// PortUnavailableError reports that the serial device could not be opened.
type PortUnavailableError struct {
	Device string
	Err    error
}

func (e *PortUnavailableError) Error() string {
	return fmt.Sprintf("serial port %s unavailable: %v", e.Device, e.Err)
}

func (e *PortUnavailableError) Unwrap() error { return e.Err }
