//go:build linux
// +build linux

package serial

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// TTY is a serial port opened directly through termios. Reads wait at most
// Config.ReadTimeout and then return ErrTimeout, so a reader loop never
// blocks indefinitely. Read and Write may be called from different
// goroutines at the same time.
type TTY struct {
	fd        int
	file      *os.File
	done      chan struct{}
	closeOnce sync.Once
	config    Config
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
}

var _ Port = (*TTY)(nil)

// OpenTTY opens cfg.Device for exclusive raw access at cfg.BaudRate.
// Errors are returned as *OpenError carrying the failure class.
func OpenTTY(cfg Config) (*TTY, error) {
	cfg = cfg.withDefaults()
	t, err := openTTY(cfg)
	if err != nil {
		return nil, &OpenError{Device: cfg.Device, Class: Classify(err), Err: err}
	}
	return t, nil
}

func openTTY(cfg Config) (_ *TTY, err error) {
	baud, err := baudToUnix(cfg.BaudRate)
	if err != nil {
		return nil, err
	}

	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK|syscall.O_CLOEXEC, 0666)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}
	defer func() {
		if err != nil {
			syscall.Close(fd)
		}
	}()

	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		return nil, fmt.Errorf("set exclusive: %w", err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	// VMIN=1, VTIME=0: once poll reports data, read returns what is there.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return nil, fmt.Errorf("set termios: %w", err)
	}

	// Turn back into blocking mode now that config is done
	if err := syscall.SetNonblock(fd, false); err != nil {
		return nil, fmt.Errorf("set blocking: %w", err)
	}

	// Self-pipe wakes a Read parked in poll when Close is called.
	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}

	return &TTY{
		fd:     fd,
		file:   os.NewFile(uintptr(fd), cfg.Device),
		done:   make(chan struct{}),
		config: cfg,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
	}, nil
}

// Name returns the device path the port was opened with.
func (s *TTY) Name() string { return s.config.Device }

// Read reads up to len(p) bytes. It returns ErrTimeout when nothing arrived
// within the read timeout and ErrClosed once the port is closed.
func (s *TTY) Read(p []byte) (int, error) {
	// A negative ReadTimeout blocks until data arrives or Close.
	timeout := -1
	if s.config.ReadTimeout > 0 {
		timeout = max(1, int(s.config.ReadTimeout/time.Millisecond))
	}
	for {
		select {
		case <-s.done:
			return 0, ErrClosed
		default:
		}

		pfd := []unix.PollFd{
			{Fd: int32(s.fd), Events: unix.POLLIN},
			{Fd: int32(s.pipeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(pfd, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			return 0, ErrTimeout
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			return 0, ErrClosed
		}
		// POLLHUP and POLLERR are surfaced by the read itself.
		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			return s.file.Read(p)
		}
		if pfd[0].Revents&unix.POLLNVAL != 0 {
			return 0, ErrClosed
		}
	}
}

// Write writes p to the port, blocking until the driver accepted all of it.
func (s *TTY) Write(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, ErrClosed
	default:
	}
	return s.file.Write(p)
}

// Close closes the port and unblocks any pending Read.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *TTY) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		unix.Write(s.pipeW, []byte{1})
		err = s.file.Close()
		unix.Close(s.pipeR)
		unix.Close(s.pipeW)
	})
	return err
}
