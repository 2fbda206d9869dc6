//go:build !linux
// +build !linux

package serial

import "errors"

// TTY is only available on Linux; use OpenPortable elsewhere.
type TTY struct{ Port }

// OpenTTY always fails outside Linux.
func OpenTTY(cfg Config) (*TTY, error) {
	return nil, &OpenError{
		Device: cfg.Device,
		Class:  Fatal,
		Err:    errors.New("native termios backend requires linux"),
	}
}
