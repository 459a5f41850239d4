// Package branding provides compile-time identity values for the updater.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork only needs to edit that file to ship an
// updater for a differently named application.
package branding

import (
	_ "embed"
	"runtime"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	DisplayName    string `yaml:"display_name"`
	CLIName        string `yaml:"cli_name"`
	Description    string `yaml:"description"`
	MainExecutable string `yaml:"main_executable"`
	UpdaterDir     string `yaml:"updater_dir"`
	StagingSuffix  string `yaml:"staging_suffix"`
	ArchiveName    string `yaml:"archive_name"`
	ConfigName     string `yaml:"config_name"`
	EnvPrefix      string `yaml:"env_prefix"`
	LayoutFile     string `yaml:"layout_file"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			DisplayName:    "Chatterino",
			CLIName:        "updater",
			Description:    "Applies a downloaded update and relaunches the application",
			MainExecutable: "Chatterino.exe",
			UpdaterDir:     "Updater",
			StagingSuffix:  ".new",
			ArchiveName:    "update.zip",
			ConfigName:     "updater",
			EnvPrefix:      "CHATTERINO_UPDATER",
			LayoutFile:     "layout.xml",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// DisplayName returns the human-readable application name (e.g., "Chatterino").
func DisplayName() string { load(); return defaults.DisplayName }

// CLIName returns the updater command name.
func CLIName() string { load(); return defaults.CLIName }

// Description returns the short updater description.
func Description() string { load(); return defaults.Description }

// MainExecutable returns the file name of the application being updated.
// The ".exe" suffix is dropped on hosts other than Windows.
func MainExecutable() string {
	load()
	if runtime.GOOS != "windows" {
		return strings.TrimSuffix(defaults.MainExecutable, ".exe")
	}
	return defaults.MainExecutable
}

// UpdaterDir returns the name of the directory the updater is installed in,
// relative to the install root (e.g., "Updater").
func UpdaterDir() string { load(); return defaults.UpdaterDir }

// StagingDir returns the directory new updater files are staged into
// (e.g., "Updater.new").
func StagingDir() string { load(); return defaults.UpdaterDir + defaults.StagingSuffix }

// ArchiveName returns the default update archive file name.
func ArchiveName() string { load(); return defaults.ArchiveName }

// ConfigName returns the settings file name without extension.
func ConfigName() string { load(); return defaults.ConfigName }

// EnvPrefix returns the environment variable prefix (e.g., "CHATTERINO_UPDATER").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// LayoutFile returns the application's layout file, which updates never touch.
func LayoutFile() string { load(); return defaults.LayoutFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("restart") → "CHATTERINO_UPDATER_RESTART".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
