package serial

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultRetryInterval is the pause between attempts while waiting.
	DefaultRetryInterval = 100 * time.Millisecond
	// DefaultRetryWindow bounds the total time spent waiting for a device.
	DefaultRetryWindow = 10 * time.Second
)

// RetryPolicy controls how long Retrier waits for an absent device.
type RetryPolicy struct {
	// Wait enables polling. Without it exactly one attempt is made.
	Wait     bool
	Interval time.Duration
	Window   time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Interval <= 0 {
		p.Interval = DefaultRetryInterval
	}
	if p.Window <= 0 {
		p.Window = DefaultRetryWindow
	}
	return p
}

type retryState int

const (
	stateAttempting retryState = iota
	stateWaiting
	stateSucceeded
	stateFailedFatal
	stateTimedOut
)

func (s retryState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateWaiting:
		return "waiting"
	case stateSucceeded:
		return "succeeded"
	case stateFailedFatal:
		return "failed"
	case stateTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("retryState(%d)", int(s))
	}
}

// Retrier wraps an Opener in the wait policy. DeviceAbsent outcomes are
// retried until the window closes; Fatal outcomes end the loop at once.
type Retrier struct {
	Opener Opener
	Policy RetryPolicy
	Logger *slog.Logger

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier returns a Retrier using opener and policy.
func NewRetrier(opener Opener, policy RetryPolicy, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = discardLogger()
	}
	return &Retrier{Opener: opener, Policy: policy.withDefaults(), Logger: logger}
}

// Open returns a freshly opened port or the error that ended the attempts.
// Without Policy.Wait it makes exactly one attempt and never sleeps.
func (r *Retrier) Open(ctx context.Context, cfg Config) (Port, error) {
	policy := r.Policy.withDefaults()
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	log := r.Logger
	if log == nil {
		log = discardLogger()
	}

	var (
		state    = stateAttempting
		start    = time.Now()
		attempts int
		outcome  Outcome
	)
	for {
		switch state {
		case stateAttempting:
			attempts++
			outcome = Attempt(r.Opener, cfg)
			switch {
			case outcome.Class == Opened:
				state = stateSucceeded
			case outcome.Class == Fatal || !policy.Wait:
				state = stateFailedFatal
			case time.Since(start)+policy.Interval > policy.Window:
				state = stateTimedOut
			default:
				state = stateWaiting
			}
			log.Debug("open attempt", "device", cfg.Device, "attempt", attempts, "class", outcome.Class, "next", state)

		case stateWaiting:
			if err := sleep(ctx, policy.Interval); err != nil {
				return nil, err
			}
			state = stateAttempting

		case stateSucceeded:
			if attempts > 1 {
				log.Info("device appeared", "device", cfg.Device, "after", time.Since(start).Round(time.Millisecond))
			}
			return outcome.Port, nil

		case stateFailedFatal:
			return nil, outcome.Err

		case stateTimedOut:
			elapsed := time.Since(start).Round(100 * time.Millisecond)
			return nil, fmt.Errorf("%w: %s after %g seconds: %w",
				ErrRetryExhausted, cfg.Device, elapsed.Seconds(), outcome.Err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
