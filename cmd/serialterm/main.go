// Command serialterm relays bytes between a serial port and the terminal.
//
//	serialterm [--baud N] [--wait] [--input-file PATH] <device>
//
// Device data is written to stdout and stdin is forwarded to the device.
// Diagnostics go to stderr. The exit code is 1 on any fatal error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	serial "github.com/luhtfiimanal/go-serial-term"
	"github.com/luhtfiimanal/go-serial-term/internal/logger"
	"github.com/luhtfiimanal/go-serial-term/relay"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Exit)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, exit func(int)) int {
	var opts Options
	parser, err := kong.New(&opts,
		kong.Name("serialterm"),
		kong.Description("A minimal serial port terminal."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
		helpVars(),
	)
	if err != nil {
		fmt.Fprintf(stderr, "serialterm: %v\n", err)
		return 1
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(stderr, "serialterm: %v\n", err)
		return 1
	}

	level, _ := logger.ParseLevel(opts.LogLevel)
	log, err := logger.New(stderr, level, opts.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "serialterm: %v\n", err)
		return 1
	}

	if opts.List {
		ports, err := serial.ListPorts()
		if err != nil {
			log.Error("failed to list ports", "err", err)
			return 1
		}
		for _, p := range ports {
			fmt.Fprintln(stdout, p)
		}
		return 0
	}

	opener, err := serial.NewOpener(opts.Backend)
	if err != nil {
		log.Error("invalid backend", "err", err)
		return 1
	}

	cfg := opts.portConfig()
	port, err := serial.NewRetrier(opener, opts.retryPolicy(), log).Open(ctx, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		log.Error(fmt.Sprintf("Failed to open %q", cfg.Device), "err", err)
		return 1
	}

	log = log.With("device", cfg.Device)
	engine := relay.New(port, opts.relayConfig(),
		relay.WithInput(stdin),
		relay.WithOutput(stdout),
		relay.WithLogger(log),
	)
	if opts.InputFile != "" {
		log.Info("sending file", "file", opts.InputFile, "baud", cfg.BaudRate)
	} else {
		log.Info("receiving data", "baud", cfg.BaudRate)
	}

	switch err := engine.Run(ctx); {
	case err == nil:
		log.Info("file sent", "file", opts.InputFile)
		return 0
	case errors.Is(err, context.Canceled):
		log.Debug("interrupted")
		return 0
	default:
		log.Error("session failed", "err", err)
		return 1
	}
}
