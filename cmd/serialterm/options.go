package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	serial "github.com/luhtfiimanal/go-serial-term"
	"github.com/luhtfiimanal/go-serial-term/internal/logger"
	"github.com/luhtfiimanal/go-serial-term/relay"
)

// Options command line options
type Options struct {
	// The serial device
	Device string `arg:"" optional:"" help:"The device path to a serial port, like '/dev/ttyUSB0'"`
	// Line speed
	Baud uint `short:"b" long:"baud" default:"115200" help:"The baud rate to connect at"`
	// Wait for the device to appear
	Wait bool `short:"w" long:"wait" help:"Wait up to ${wait_seconds} seconds for the serial port to appear"`
	// Send a file instead of relaying
	InputFile string `short:"i" long:"input-file" type:"existingfile" help:"Send the contents of this file to the port, then exit"`

	Backend   string `long:"backend" enum:"native,portable" default:"native" help:"Port driver: native termios or portable go.bug.st/serial"`
	List      bool   `short:"l" long:"list" help:"List available serial ports and exit"`
	LogLevel  string `long:"log-level" enum:"debug,info,warn,error" default:"info" help:"Diagnostic log level"`
	LogFormat string `long:"log-format" enum:"console,json" default:"console" help:"Diagnostic log format"`

	Version kong.VersionFlag `short:"V" long:"version" help:"Show program version"`
}

// Validate is called by kong after parsing.
func (o *Options) Validate() error {
	if o.Device == "" && !o.List {
		return errors.New("expected <device>")
	}
	if o.Baud == 0 {
		return errors.New("--baud must be positive")
	}
	if _, err := logger.ParseLevel(o.LogLevel); err != nil {
		return err
	}
	return nil
}

func (o *Options) portConfig() serial.Config {
	return serial.Config{
		Device:      o.Device,
		BaudRate:    int(o.Baud),
		ReadTimeout: serial.DefaultReadTimeout,
	}
}

func (o *Options) retryPolicy() serial.RetryPolicy {
	return serial.RetryPolicy{
		Wait:     o.Wait,
		Interval: serial.DefaultRetryInterval,
		Window:   serial.DefaultRetryWindow,
	}
}

func (o *Options) relayConfig() relay.Config {
	return relay.Config{
		InputFile:   o.InputFile,
		SettleDelay: relay.DefaultSettleDelay,
		BufferSize:  relay.DefaultBufferSize,
	}
}

func helpVars() kong.Vars {
	return kong.Vars{
		"version":      version,
		"wait_seconds": strconv.Itoa(int(serial.DefaultRetryWindow / time.Second)),
	}
}
