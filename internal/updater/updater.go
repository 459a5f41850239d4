package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chatterino/chatterino-updater/internal/archive"
	"github.com/chatterino/chatterino-updater/internal/branding"
	"github.com/chatterino/chatterino-updater/internal/console"
	"github.com/chatterino/chatterino-updater/internal/extract"
	"github.com/chatterino/chatterino-updater/internal/lockwait"
	"github.com/chatterino/chatterino-updater/internal/platform"
)

// Result describes a finished run.
type Result struct {
	// Outcome is the extraction outcome; zero when extraction did not run.
	Outcome extract.Outcome
	// Err is the error that failed the run, nil on success.
	Err error
	// LockErr is set when the lock wait gave up. It is only a warning.
	LockErr error
	// SpawnErr is set when the relaunch failed. It is only a warning.
	SpawnErr error
	// UpToDate is set when the archive was not newer than the installed version.
	UpToDate bool
	ExitCode int
}

// Updater provides the update run.
type Updater struct {
	target           Target
	waiter           *lockwait.Waiter
	extractOpts      []extract.Option
	restart          bool
	force            bool
	pause            bool
	quiet            bool
	installedVersion string
	in               io.Reader
	out              io.Writer
	spawn            func(path string) error
	onState          func(State)
	state            State
}

// Option configures an Updater.
type Option func(*Updater)

// WithWaiter replaces the default lock waiter.
func WithWaiter(w *lockwait.Waiter) Option {
	return func(u *Updater) {
		u.waiter = w
	}
}

// WithExtractOptions passes options to the extraction engine.
func WithExtractOptions(opts ...extract.Option) Option {
	return func(u *Updater) {
		u.extractOpts = append(u.extractOpts, opts...)
	}
}

// WithRestart relaunches the application after a successful update.
func WithRestart(restart bool) Option {
	return func(u *Updater) {
		u.restart = restart
	}
}

// WithForce applies the archive even when it is not newer than the
// installed version.
func WithForce(force bool) Option {
	return func(u *Updater) {
		u.force = force
	}
}

// WithInstalledVersion sets the version currently installed. Without it the
// archive is always applied.
func WithInstalledVersion(v string) Option {
	return func(u *Updater) {
		u.installedVersion = v
	}
}

// WithPause controls whether warnings and errors wait for a key press.
func WithPause(pause bool) Option {
	return func(u *Updater) {
		u.pause = pause
	}
}

// WithQuiet suppresses progress lines. Warnings and errors are still printed.
func WithQuiet(quiet bool) Option {
	return func(u *Updater) {
		u.quiet = quiet
	}
}

// WithConsole sets where acknowledgements are read from and messages written to.
func WithConsole(in io.Reader, out io.Writer) Option {
	return func(u *Updater) {
		u.in = in
		u.out = out
	}
}

// WithSpawner replaces platform.StartDetached (useful for testing).
func WithSpawner(spawn func(path string) error) Option {
	return func(u *Updater) {
		u.spawn = spawn
	}
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(u *Updater) {
		u.onState = fn
	}
}

// New creates an Updater for target.
func New(target Target, opts ...Option) *Updater {
	u := &Updater{
		target: target,
		waiter: lockwait.New(),
		pause:  true,
		in:     os.Stdin,
		out:    os.Stderr,
		spawn: func(path string) error {
			return platform.StartDetached(path)
		},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// State returns the state the last run reached.
func (u *Updater) State() State {
	return u.state
}

// Target returns the paths this updater works on.
func (u *Updater) Target() Target {
	return u.target
}

// Run performs the update. The context only interrupts the lock wait;
// extraction, once started, runs to completion or first failure.
func (u *Updater) Run(ctx context.Context) Result {
	var res Result
	defer u.transition(Done)

	u.transition(WaitingForLock)
	if err := u.waiter.Wait(ctx, u.target.MainExecutable); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Err = fmt.Errorf("waiting for %s to exit: %w", branding.DisplayName(), ctxErr)
			return u.fail(res)
		}
		res.LockErr = err
		fmt.Fprintf(u.out, "Make sure to close all instances of %s before updating.\n", branding.DisplayName())
		u.acknowledge("Press any key to continue.")
	}

	u.transition(Extracting)
	res.Outcome, res.UpToDate = u.extract()
	if !res.Outcome.Success() {
		res.Err = res.Outcome.Err
		return u.fail(res)
	}

	u.transition(Succeeded)
	if res.UpToDate {
		u.info("%s is already up to date", branding.DisplayName())
	} else {
		u.info("updated %d file(s) in %s", res.Outcome.Written, u.target.InstallRoot)
	}

	if u.restart {
		u.transition(RelaunchRequested)
		if err := u.spawn(u.target.MainExecutable); err != nil {
			res.SpawnErr = &SpawnError{Path: u.target.MainExecutable, Err: err}
			fmt.Fprintf(u.out, "warning: %v\n", res.SpawnErr)
		}
	}
	return res
}

func (u *Updater) extract() (extract.Outcome, bool) {
	r, err := archive.Open(u.target.ArchivePath)
	if err != nil {
		return extract.Outcome{Err: err}, false
	}
	defer r.Close()

	if !ShouldApply(u.installedVersion, r.Comment(), u.force) {
		return extract.Outcome{}, true
	}

	opts := append([]extract.Option{}, u.extractOpts...)
	if !u.quiet {
		opts = append(opts, extract.WithProgress(u.progress(r.Len())))
	}
	out := extract.New(opts...).Extract(r.Entries(), u.target.InstallRoot)
	if !u.quiet && r.Len() > 0 {
		fmt.Fprintln(u.out)
	}
	return out, false
}

func (u *Updater) progress(total int) func(extract.Progress) {
	lastPercent := -1
	return func(p extract.Progress) {
		percent := p.Done * 100 / total
		if percent != lastPercent {
			fmt.Fprintf(u.out, "\rExtracting... %d%%", percent)
			lastPercent = percent
		}
	}
}

func (u *Updater) fail(res Result) Result {
	u.transition(Failed)
	fmt.Fprintf(u.out, "Error: %v\n", describe(res.Err))
	u.acknowledge("Press any key to exit.")
	res.ExitCode = 1
	return res
}

func (u *Updater) acknowledge(prompt string) {
	if !u.pause {
		return
	}
	// The answer does not matter; a closed stdin must not hang or fail the run.
	_ = console.WaitForKey(u.in, u.out, prompt)
}

func (u *Updater) info(format string, args ...any) {
	if u.quiet {
		return
	}
	fmt.Fprintf(u.out, format+"\n", args...)
}

func (u *Updater) transition(s State) {
	u.state = s
	if u.onState != nil {
		u.onState(s)
	}
}

// describe adds a hint on how to recover to well-known failures.
func describe(err error) string {
	msg := err.Error()
	var hint string
	switch {
	case errors.Is(err, archive.ErrArchiveOpen):
		hint = "download the update again"
	case errors.Is(err, archive.ErrArchiveCorrupt):
		hint = "the download may be damaged, download the update again"
	case errors.Is(err, extract.ErrIO):
		hint = fmt.Sprintf("check disk space and that %s is not running, then run the updater again", branding.DisplayName())
	}
	if hint == "" || strings.Contains(msg, hint) {
		return msg
	}
	return msg + " (" + hint + ")"
}
