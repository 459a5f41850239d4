package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chatterino/chatterino-updater/internal/branding"
	"github.com/chatterino/chatterino-updater/internal/config"
	"github.com/chatterino/chatterino-updater/internal/extract"
	"github.com/chatterino/chatterino-updater/internal/lockwait"
	"github.com/chatterino/chatterino-updater/internal/updater"
)

// BuildInfo is injected via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Streams are the standard streams a command tree reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// exitError carries the exit code of a run that already reported its failure.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// rootOptions holds the flags shared by the whole tree.
type rootOptions struct {
	build     BuildInfo
	selfPath  string
	configDir string
	quiet     bool
	noPause   bool
}

// Execute runs the command line of the current process and returns its exit
// code. An interrupt cancels the lock wait.
func Execute(version, commit, date string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	build := BuildInfo{Version: version, Commit: commit, Date: date}
	return Run(ctx, build, os.Args[1:], Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// Run executes the command tree with args and returns the exit code.
func Run(ctx context.Context, build BuildInfo, args []string, streams Streams) int {
	config.Reset()
	cmd := newRootCmd(build)
	cmd.SetArgs(args)
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	err := cmd.ExecuteContext(ctx)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if err != nil {
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(build BuildInfo) *cobra.Command {
	opts := &rootOptions{build: build}

	cmd := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: `Applies a downloaded ` + branding.DisplayName() + ` update. The updater waits for the
application to exit, extracts ` + branding.ArchiveName() + ` over the installation directory,
and optionally starts the application again.

Files under ` + branding.UpdaterDir() + `/ in the archive are written to ` + branding.StagingDir() + `/ since the
running updater cannot replace itself.

Settings are read from ` + branding.ConfigName() + `.yaml next to the updater and can be
overridden with environment variables such as ` + branding.EnvVar(config.KeyRestart) + `.`,
		// Positional arguments are most likely a mistyped subcommand.
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// The application may pass options newer updaters understand.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configDir, "config-dir", "", "Directory holding "+branding.ConfigName()+".yaml (default: the updater's directory)")
	pf.StringVar(&opts.selfPath, "self", "", "Path treated as the updater's own executable")
	_ = pf.MarkHidden("self")

	f := cmd.Flags()
	f.Bool("restart", false, "Start "+branding.DisplayName()+" after a successful update")
	f.String("archive", branding.ArchiveName(), "Update archive, relative to the updater's directory")
	f.Bool("force", false, "Apply the archive even if it is not newer than the installed version")
	f.String("installed-version", "", "Version currently installed; skips archives that are not newer")
	f.BoolVar(&opts.noPause, "no-pause", false, "Do not wait for a key press on warnings and errors")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print warnings and errors")

	for key, flag := range map[string]string{
		config.KeyRestart:          "restart",
		config.KeyArchive:          "archive",
		config.KeyForce:            "force",
		config.KeyInstalledVersion: "installed-version",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	cmd.AddCommand(newListCmd(opts), newVersionCmd(opts), newConfigCmd(opts))
	cmd.SetGlobalNormalizationFunc(normalizeFlag)
	return cmd
}

// normalizeFlag accepts the application-specific spelling of --restart.
func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "restart-"+strings.ToLower(branding.DisplayName()) {
		name = "restart"
	}
	return pflag.NormalizedName(name)
}

// target resolves the install layout around the updater executable.
func (o *rootOptions) target(archive string) (updater.Target, error) {
	if o.selfPath != "" {
		return updater.NewTarget(o.selfPath, archive)
	}
	return updater.CurrentTarget(archive)
}

func (o *rootOptions) loadConfig() error {
	switch {
	case o.configDir != "":
		config.SetDir(o.configDir)
	case o.selfPath != "":
		self, err := filepath.Abs(o.selfPath)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", o.selfPath, err)
		}
		config.SetDir(filepath.Dir(self))
	}
	return config.Load()
}

func runUpdate(cmd *cobra.Command, opts *rootOptions) error {
	errOut := cmd.ErrOrStderr()

	result, err := config.ValidateFile(config.FilePath())
	if err != nil {
		return fmt.Errorf("validating %s: %w", config.FilePath(), err)
	}
	if !result.Valid {
		fmt.Fprintf(errOut, "%s has %s:\n", config.FilePath(), result.Summary())
		for _, issue := range result.Issues {
			fmt.Fprintf(errOut, "  %s\n", issue)
		}
		return &exitError{code: 1}
	}

	settings, err := config.Current()
	if err != nil {
		return err
	}
	target, err := opts.target(settings.Archive)
	if err != nil {
		return err
	}

	u := updater.New(target,
		updater.WithWaiter(lockwait.New(
			lockwait.WithGracePeriod(settings.GracePeriod),
			lockwait.WithPollInterval(settings.PollInterval),
			lockwait.WithMaxAttempts(settings.MaxAttempts),
			lockwait.WithLockedHook(func(attempt int, err error) {
				if attempt == 1 && !opts.quiet {
					fmt.Fprintf(errOut, "Waiting for %s to close...\n", branding.DisplayName())
				}
			}),
		)),
		updater.WithExtractOptions(
			extract.WithRules(settings.Rules),
			extract.WithPreserve(settings.Preserve...),
			extract.WithBufferSize(settings.BufferSize),
		),
		updater.WithRestart(settings.Restart),
		updater.WithForce(settings.Force),
		updater.WithInstalledVersion(settings.InstalledVersion),
		updater.WithPause(settings.PauseOnError && !opts.noPause),
		updater.WithQuiet(opts.quiet),
		updater.WithConsole(cmd.InOrStdin(), errOut),
	)

	if !opts.quiet {
		fmt.Fprintf(errOut, "Updating %s in %s\n", branding.DisplayName(), u.Target().InstallRoot)
	}
	res := u.Run(cmd.Context())
	if res.ExitCode != 0 {
		return &exitError{code: res.ExitCode}
	}
	return nil
}
