// Package lockwait blocks until the application being updated has let go of
// its executable.
//
// The check is a probe, not a mutex: the file is opened for exclusive access
// and closed again straight away. The application could reopen it between a
// successful probe and the first write of the update; that window is
// accepted.
package lockwait

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/chatterino/chatterino-updater/internal/platform"
)

const (
	// DefaultGracePeriod gives a just-closed application time to release its
	// handles before the first probe.
	DefaultGracePeriod  = 2 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxAttempts  = 20
)

// ErrLockTimeout reports that the file was still held after the last attempt.
var ErrLockTimeout = errors.New("file is still in use")

// TimeoutError carries the probe error from the last attempt.
type TimeoutError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %s: %v", ErrLockTimeout, e.Attempts, e.Path, e.Err)
}

func (e *TimeoutError) Unwrap() []error { return []error{ErrLockTimeout, e.Err} }

// Waiter polls a file until an exclusive open succeeds.
type Waiter struct {
	grace       time.Duration
	interval    time.Duration
	maxAttempts int
	probe       func(path string) error
	sleep       func(ctx context.Context, d time.Duration) error
	onLocked    func(attempt int, err error)
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithGracePeriod sets the sleep before the first probe.
func WithGracePeriod(d time.Duration) Option {
	return func(w *Waiter) {
		w.grace = d
	}
}

// WithPollInterval sets the sleep between probes.
func WithPollInterval(d time.Duration) Option {
	return func(w *Waiter) {
		w.interval = d
	}
}

// WithMaxAttempts caps the number of probes. Zero or less waits forever.
func WithMaxAttempts(n int) Option {
	return func(w *Waiter) {
		w.maxAttempts = n
	}
}

// WithProbe replaces platform.ProbeExclusive (useful for testing).
func WithProbe(probe func(path string) error) Option {
	return func(w *Waiter) {
		w.probe = probe
	}
}

// WithSleep replaces the context-aware sleep (useful for testing).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Waiter) {
		w.sleep = sleep
	}
}

// WithLockedHook is called after every probe that finds the file held.
func WithLockedHook(fn func(attempt int, err error)) Option {
	return func(w *Waiter) {
		w.onLocked = fn
	}
}

// New creates a Waiter with the default grace period, interval and cap.
func New(opts ...Option) *Waiter {
	w := &Waiter{
		grace:       DefaultGracePeriod,
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
		probe:       platform.ProbeExclusive,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitUntilUnlocked reports whether path became free (or does not exist)
// within the attempt cap.
func (w *Waiter) WaitUntilUnlocked(ctx context.Context, path string) bool {
	return w.Wait(ctx, path) == nil
}

// Wait is WaitUntilUnlocked with the reason for giving up: a *TimeoutError
// when the cap is exhausted, or the context's error.
func (w *Waiter) Wait(ctx context.Context, path string) error {
	if err := w.sleep(ctx, w.grace); err != nil {
		return err
	}

	var last error
	attempt := 0
	for {
		attempt++
		err := w.probe(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		last = err
		if w.onLocked != nil {
			w.onLocked(attempt, err)
		}

		if w.maxAttempts > 0 && attempt >= w.maxAttempts {
			return &TimeoutError{Path: path, Attempts: attempt, Err: last}
		}
		if err := w.sleep(ctx, w.interval); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
