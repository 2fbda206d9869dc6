//go:build linux
// +build linux

package serial

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func TestPortable_ReadWrite(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := OpenPortable(Config{Device: slave.Name(), BaudRate: 9600})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	// Idle reads come back as empty reads, not errors.
	n, err := port.Read(make([]byte, 8))
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = master.Write([]byte("ping"))
	require.NoError(t, err)

	var got []byte
	buf := make([]byte, 8)
	deadline := time.Now().Add(500 * time.Millisecond)
	for len(got) < 4 && time.Now().Before(deadline) {
		n, err := port.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.Equal(t, "ping", string(got))

	require.NoError(t, WriteAll(port, []byte("pong")))
	out := make([]byte, 4)
	_, err = master.Read(out)
	require.NoError(t, err)
	require.Equal(t, "pong", string(out))
}
