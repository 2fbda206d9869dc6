// Package serial opens serial ports for a terminal-style relay.
//
// Two backends are provided. OpenTTY talks to Linux termios directly: the
// port is opened exclusively in raw 8N1 mode and every Read waits at most
// Config.ReadTimeout (10ms by default) before returning ErrTimeout, so a
// relay loop wakes up regularly even on a silent line. OpenPortable uses
// go.bug.st/serial and works wherever that library does.
//
// Open failures are classified. A device that is not present (ENOENT,
// ENODEV, ENXIO) is DeviceAbsent and may be waited out; anything else
// (permission denied, busy, not a tty, unsupported baud) is Fatal.
// Retrier applies the wait policy on top of any Opener:
//
//	r := serial.NewRetrier(serial.NativeOpener, serial.RetryPolicy{Wait: true}, nil)
//	port, err := r.Open(ctx, serial.Config{Device: "/dev/ttyUSB0", BaudRate: 115200})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Split turns a port into a read capability and a write capability that
// can be used from two goroutines. The port is closed once both have been
// closed.
//
// The native backend is Linux-only. Tests use pseudo-terminals from
// github.com/creack/pty as stand-in devices.
package serial
