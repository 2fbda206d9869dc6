package serial

import (
	"io"
	"time"
)

const (
	// DefaultBaudRate is used when Config.BaudRate is zero.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds every Read so relay loops wake up regularly.
	DefaultReadTimeout = 10 * time.Millisecond
)

// Config holds configuration parameters for opening a serial port.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// Port is an open serial connection. Read returns after at most the
// configured read timeout; a timeout is reported either as (0, nil) or as
// an error for which IsTimeout is true, depending on the backend.
type Port interface {
	io.ReadWriteCloser
}
