//go:build linux
// +build linux

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	exit := func(code int) { t.Fatalf("unexpected exit(%d): %s", code, stderr.String()) }
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr, exit)
	return code, stdout.String(), stderr.String()
}

func readN(t *testing.T, f *os.File, n int) []byte {
	t.Helper()
	got := make([]byte, 0, n)
	buf := make([]byte, 64)
	for len(got) < n {
		m, err := f.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:m]...)
	}
	return got
}

func TestRun_AbsentDeviceNoWait(t *testing.T) {
	device := filepath.Join(t.TempDir(), "null-equivalent-absent")

	start := time.Now()
	code, stdout, stderr := runCLI(t, device)

	require.Equal(t, 1, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, device)
	require.Less(t, time.Since(start), time.Second)
}

func TestRun_MissingDevice(t *testing.T) {
	code, _, stderr := runCLI(t)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "device")
}

func TestRun_JSONDiagnostics(t *testing.T) {
	device := filepath.Join(t.TempDir(), "ttyUSB5")

	code, _, stderr := runCLI(t, "--log-format", "json", device)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, `"level":"ERROR"`)
	require.Contains(t, stderr, device)
}

func TestRun_SendFile(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	data := []byte("\x02hello\x03\r\n")
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	code, stdout, stderr := runCLI(t, "-b", "9600", "-i", path, slave.Name())
	require.Equal(t, 0, code, stderr)
	require.Empty(t, stdout)
	require.Equal(t, data, readN(t, master, len(data)))
}

func TestRun_WaitForDevice(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("late"), 0o600))

	// The device node shows up two polling intervals after start.
	link := filepath.Join(t.TempDir(), "ttyLATE")
	timer := time.AfterFunc(200*time.Millisecond, func() {
		os.Symlink(slave.Name(), link)
	})
	t.Cleanup(func() { timer.Stop() })

	start := time.Now()
	code, _, stderr := runCLI(t, "--wait", "--input-file", path, link)
	require.Equal(t, 0, code, stderr)
	require.Less(t, time.Since(start), 3*time.Second)
	require.Equal(t, []byte("late"), readN(t, master, 4))
}

func TestRun_WaitFatalDoesNotRetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	start := time.Now()
	code, _, stderr := runCLI(t, "--wait", path)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, path)
	require.Less(t, time.Since(start), time.Second)
}
