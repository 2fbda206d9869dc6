package serial

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	bugst "go.bug.st/serial"
)

var (
	// ErrDeviceAbsent reports that the device is not present on the system.
	// It is the only open failure worth waiting out.
	ErrDeviceAbsent = errors.New("serial: device not present")

	// ErrTimeout is returned by Read when no byte arrived within the
	// configured read timeout. Callers treat it as an idle tick.
	ErrTimeout = errors.New("serial: read timeout")

	// ErrClosed is returned by operations on a port that has been closed.
	ErrClosed = errors.New("serial: port closed")

	// ErrRetryExhausted is wrapped by the error returned when the wait
	// window elapses without the device appearing.
	ErrRetryExhausted = errors.New("serial: device did not appear")

	// ErrUnsupportedBaud is returned for baud rates the native backend
	// cannot program.
	ErrUnsupportedBaud = errors.New("serial: unsupported baud rate")
)

// ErrorClass classifies the result of a single open attempt.
type ErrorClass int

const (
	Opened ErrorClass = iota
	DeviceAbsent
	Fatal
)

func (c ErrorClass) String() string {
	switch c {
	case Opened:
		return "opened"
	case DeviceAbsent:
		return "device absent"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("ErrorClass(%d)", int(c))
	}
}

// OpenError describes a failed open attempt.
type OpenError struct {
	Device string
	Class  ErrorClass
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDeviceAbsent) match absent-class open errors
// regardless of the backend's underlying error value.
func (e *OpenError) Is(target error) bool {
	return target == ErrDeviceAbsent && e.Class == DeviceAbsent
}

// Classify maps an open failure onto DeviceAbsent or Fatal. A nil error
// classifies as Opened.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return Opened
	case errors.Is(err, ErrDeviceAbsent),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOENT),
		errors.Is(err, syscall.ENODEV),
		errors.Is(err, syscall.ENXIO):
		return DeviceAbsent
	}

	if code, ok := portErrorCode(err); ok && code == bugst.PortNotFound {
		return DeviceAbsent
	}
	return Fatal
}

// portErrorCode extracts the go.bug.st/serial error code, which the library
// returns both by value and by pointer depending on the platform.
func portErrorCode(err error) (bugst.PortErrorCode, bool) {
	var ptr *bugst.PortError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code(), true
	}
	var val bugst.PortError
	if errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}

// IsTimeout reports whether err is a read timeout rather than a failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
