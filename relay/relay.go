// Package relay moves bytes between an open serial port and the terminal.
//
// An Engine runs in one of two modes chosen once at start. File-Send writes
// a file to the port and returns. Interactive copies the input stream to the
// port and the port to the output stream until a fatal error or until the
// context is cancelled.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	serial "github.com/luhtfiimanal/go-serial-term"
)

const (
	// DefaultBufferSize is the largest chunk read from the port at once.
	DefaultBufferSize = 1000
	// DefaultSettleDelay gives the device time to drain a file before the
	// port is closed.
	DefaultSettleDelay = 500 * time.Millisecond
)

// Config selects the relay mode.
type Config struct {
	// InputFile switches the engine to File-Send mode when non-empty.
	InputFile   string
	SettleDelay time.Duration
	BufferSize  int
}

// IOError is a fatal read or write failure during a session.
type IOError struct {
	Op  string // "read device", "write device", "read file", "write output", ...
	Err error
}

func (e *IOError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

// Engine relays bytes for one session. It owns the port it was given and
// closes it before Run returns, except that in Interactive mode the write
// side stays open until the input loop finishes.
type Engine struct {
	port serial.Port
	cfg  Config
	in   io.Reader
	out  io.Writer
	log  *slog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithInput sets the stream forwarded to the device. Defaults to os.Stdin.
func WithInput(r io.Reader) Option { return func(e *Engine) { e.in = r } }

// WithOutput sets the stream device data is copied to. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option { return func(e *Engine) { e.out = w } }

// WithLogger sets the logger used for status messages.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// New returns an Engine for port.
func New(port serial.Port, cfg Config, opts ...Option) *Engine {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	e := &Engine{
		port: port,
		cfg:  cfg,
		in:   os.Stdin,
		out:  os.Stdout,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the session. In File-Send mode it returns nil once the file
// was written and the settle delay passed. In Interactive mode it only
// returns on a fatal I/O error or with ctx.Err() after cancellation.
func (e *Engine) Run(ctx context.Context) error {
	if e.cfg.InputFile != "" {
		_, err := e.SendFile(ctx)
		return err
	}
	return e.Interactive(ctx)
}

// SendFile writes the whole input file to the port in one operation and
// returns the number of bytes sent.
func (e *Engine) SendFile(ctx context.Context) (int, error) {
	defer e.port.Close()

	data, err := os.ReadFile(e.cfg.InputFile)
	if err != nil {
		return 0, &IOError{Op: "read file", Err: err}
	}
	if err := serial.WriteAll(e.port, data); err != nil {
		return 0, &IOError{Op: "write device", Err: err}
	}
	e.log.Debug("file written, settling", "file", e.cfg.InputFile, "bytes", len(data), "delay", e.cfg.SettleDelay)

	t := time.NewTimer(e.cfg.SettleDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return len(data), ctx.Err()
	}
	return len(data), nil
}

// Interactive relays in both directions. The input loop runs in its own
// goroutine and reports a failure back on a channel; the device loop runs
// on the calling goroutine and decides when the session ends.
func (e *Engine) Interactive(ctx context.Context) error {
	rd, wr := serial.Split(e.port)
	defer rd.Close()

	inputErr := make(chan error, 1)
	go func() {
		defer wr.Close()
		if err := forwardInput(e.in, wr); err != nil {
			inputErr <- err
		}
	}()

	return e.forwardDevice(ctx, rd, inputErr)
}

// forwardInput copies r to the device one byte at a time. EOF on r ends the
// loop without error.
func forwardInput(r io.Reader, w io.Writer) error {
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n > 0 {
			if _, werr := w.Write(b[:n]); werr != nil {
				return &IOError{Op: "write device", Err: werr}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &IOError{Op: "read input", Err: err}
		}
	}
}

func (e *Engine) forwardDevice(ctx context.Context, r io.Reader, inputErr <-chan error) error {
	buf := make([]byte, e.cfg.BufferSize)
	for {
		select {
		case err := <-inputErr:
			return err
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := e.out.Write(buf[:n]); werr != nil {
				return &IOError{Op: "write output", Err: werr}
			}
		}
		switch {
		case err == nil:
		case serial.IsTimeout(err):
		default:
			return &IOError{Op: "read device", Err: err}
		}
	}
}
