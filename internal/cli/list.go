package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chatterino/chatterino-updater/internal/archive"
	"github.com/chatterino/chatterino-updater/internal/config"
	"github.com/chatterino/chatterino-updater/internal/extract"
)

// listEntry is one archive member and where it would be written.
type listEntry struct {
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [archive]",
		Short: "Show where each archive entry would be written",
		Long: `List the entries of an update archive with their destination under the
installation directory. Entries that would be rejected are reported with the
reason. Nothing is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, args, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func runList(cmd *cobra.Command, opts *rootOptions, args []string, asJSON bool) error {
	settings, err := config.Current()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		settings.Archive = args[0]
	}
	target, err := opts.target(settings.Archive)
	if err != nil {
		return err
	}

	r, err := archive.Open(target.ArchivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	engine := extract.New(extract.WithRules(settings.Rules), extract.WithPreserve(settings.Preserve...))
	var entries []listEntry
	rejected := 0
	for entry, err := range r.Entries() {
		if err != nil {
			return err
		}
		le := listEntry{Name: entry.Name, Status: "write"}
		dst, keep, err := engine.Plan(entry.Name, target.InstallRoot)
		switch {
		case err != nil:
			le.Status = "rejected"
			le.Error = err.Error()
			rejected++
		case keep:
			le.Status = "preserved"
			le.Destination = dst.Rel
		default:
			le.Destination = dst.Rel
			if entry.IsDir {
				le.Status = "mkdir"
			}
		}
		entries = append(entries, le)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		if comment := r.Comment(); comment != "" {
			fmt.Fprintf(out, "Archive: %s (%s)\n\n", r.Path(), comment)
		} else {
			fmt.Fprintf(out, "Archive: %s\n\n", r.Path())
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENTRY\tSTATUS\tDESTINATION")
		for _, e := range entries {
			dest := e.Destination
			if e.Error != "" {
				dest = e.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Status, dest)
		}
		w.Flush()
		fmt.Fprintf(out, "\n%d entries\n", len(entries))
	}

	if rejected > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d entries would be rejected; the update would fail\n", rejected)
		return &exitError{code: 1}
	}
	return nil
}
