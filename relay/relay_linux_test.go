//go:build linux
// +build linux

package relay

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	serial "github.com/luhtfiimanal/go-serial-term"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func openPTY(t *testing.T, baud int) (*os.File, *serial.TTY) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := serial.OpenTTY(serial.Config{Device: slave.Name(), BaudRate: baud})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })
	return master, port
}

func TestInteractive_PTYDuplex(t *testing.T) {
	master, port := openPTY(t, 115200)

	inR, inW := io.Pipe()
	t.Cleanup(func() { inW.Close() })
	out := &syncBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(port, Config{}, WithInput(inR), WithOutput(out)).Run(ctx)
	}()

	// Device to terminal.
	_, err := master.Write([]byte("boot ok\r\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return out.String() == "boot ok\r\n"
	}, time.Second, 5*time.Millisecond)

	// Terminal to device.
	_, err = inW.Write([]byte("reset\n"))
	require.NoError(t, err)

	got := make([]byte, 0, 6)
	buf := make([]byte, 16)
	for len(got) < 6 {
		n, err := master.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.Equal(t, "reset\n", string(got))

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("session did not stop after cancel")
	}
}

func TestInteractive_PTYDisconnectIsFatal(t *testing.T) {
	master, port := openPTY(t, 115200)

	done := make(chan error, 1)
	go func() {
		done <- New(port, Config{}, WithInput(blockingReader{}), WithOutput(io.Discard)).Run(context.Background())
	}()

	// Idle timeouts must not end the session.
	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("session ended while idle: %v", err)
	default:
	}

	require.NoError(t, master.Close())
	select {
	case err := <-done:
		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		require.Equal(t, "read device", ioErr.Op)
	case <-time.After(time.Second):
		t.Fatal("disconnect was not reported")
	}
}

func TestSendFile_PTY(t *testing.T) {
	master, port := openPTY(t, 9600)

	data := []byte("0123456789")
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	n, err := New(port, Config{InputFile: path, SettleDelay: 10 * time.Millisecond}).SendFile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, n)

	got := make([]byte, 0, len(data))
	buf := make([]byte, 32)
	for len(got) < len(data) {
		n, err := master.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.Equal(t, data, got)
}
