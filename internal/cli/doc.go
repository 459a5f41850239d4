// Package cli defines the Cobra command tree for the updater. The root command
// performs the update; subcommands inspect an archive, print build info, and
// manage the settings file. Commands only handle flag parsing and output and
// delegate the work to the internal packages.
package cli
