package serial

import (
	"errors"
	"fmt"
)

// Opener performs a single attempt at opening a port. It never retries.
type Opener interface {
	Open(cfg Config) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(cfg Config) (Port, error)

func (f OpenerFunc) Open(cfg Config) (Port, error) { return f(cfg) }

// Backend names accepted by NewOpener.
const (
	BackendNative   = "native"
	BackendPortable = "portable"
)

// NativeOpener opens ports through termios; Linux only.
var NativeOpener Opener = OpenerFunc(func(cfg Config) (Port, error) {
	t, err := OpenTTY(cfg)
	if err != nil {
		return nil, err
	}
	return t, nil
})

// PortableOpener opens ports through go.bug.st/serial.
var PortableOpener Opener = OpenerFunc(OpenPortable)

// NewOpener returns the opener for the named backend.
func NewOpener(backend string) (Opener, error) {
	switch backend {
	case "", BackendNative:
		return NativeOpener, nil
	case BackendPortable:
		return PortableOpener, nil
	default:
		return nil, fmt.Errorf("serial: unknown backend %q", backend)
	}
}

// Outcome is the result of one open attempt.
type Outcome struct {
	Class ErrorClass
	Port  Port
	Err   error
}

// Attempt runs a single open and classifies the result. On failure Err is
// an *OpenError naming the device.
func Attempt(o Opener, cfg Config) Outcome {
	p, err := o.Open(cfg)
	if err == nil {
		return Outcome{Class: Opened, Port: p}
	}
	var oe *OpenError
	if !errors.As(err, &oe) {
		oe = &OpenError{Device: cfg.Device, Class: Classify(err), Err: err}
	}
	return Outcome{Class: oe.Class, Err: oe}
}
