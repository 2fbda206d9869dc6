package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

var errShortWrite = errors.New("serial: short write")

// shared owns a port on behalf of its halves and closes it when the last
// half is released.
type shared struct {
	port Port
	refs atomic.Int32
}

func (s *shared) release() error {
	if s.refs.Add(-1) == 0 {
		return s.port.Close()
	}
	return nil
}

// ReadHalf is the read capability of a split port.
type ReadHalf struct {
	s    *shared
	once sync.Once
}

func (h *ReadHalf) Read(p []byte) (int, error) { return h.s.port.Read(p) }

// Close releases the read capability. The port itself is closed once the
// write capability is released too.
func (h *ReadHalf) Close() (err error) {
	h.once.Do(func() { err = h.s.release() })
	return err
}

// WriteHalf is the write capability of a split port.
type WriteHalf struct {
	s    *shared
	once sync.Once
}

func (h *WriteHalf) Write(p []byte) (int, error) { return h.s.port.Write(p) }

// Close releases the write capability.
func (h *WriteHalf) Close() (err error) {
	h.once.Do(func() { err = h.s.release() })
	return err
}

// Split hands ownership of p to a read capability and a write capability.
// p must not be used or closed directly afterwards.
func Split(p Port) (*ReadHalf, *WriteHalf) {
	s := &shared{port: p}
	s.refs.Store(2)
	return &ReadHalf{s: s}, &WriteHalf{s: s}
}

// WriteAll writes p with a single Write call and fails if fewer bytes were
// accepted.
func WriteAll(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("%w: %d of %d bytes", errShortWrite, n, len(p))
	}
	return nil
}
