package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/chatterino/chatterino-updater/internal/branding"
	"github.com/chatterino/chatterino-updater/internal/lockwait"
	"github.com/chatterino/chatterino-updater/internal/remap"
)

const fileType = "yaml"

// Setting keys.
const (
	KeyRestart          = "restart"
	KeyArchive          = "archive"
	KeyGracePeriod      = "grace_period"
	KeyPollInterval     = "poll_interval"
	KeyMaxAttempts      = "max_attempts"
	KeyBufferSize       = "buffer_size"
	KeyPauseOnError     = "pause_on_error"
	KeyForce            = "force"
	KeyInstalledVersion = "installed_version"
	KeyPreserve         = "preserve"
	KeyRules            = "rules"
)

// Settings is the resolved configuration for one run.
type Settings struct {
	Restart          bool
	Archive          string
	GracePeriod      time.Duration
	PollInterval     time.Duration
	MaxAttempts      int
	BufferSize       int
	PauseOnError     bool
	Force            bool
	InstalledVersion string
	Preserve         []string
	Rules            []remap.Rule
}

var (
	mu          sync.Mutex
	dirOverride string
)

// SetDir overrides the directory the settings file is read from.
func SetDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	dirOverride = dir
}

// Dir returns the directory holding updater.yaml: the updater executable's
// own directory unless overridden.
func Dir() string {
	mu.Lock()
	defer mu.Unlock()
	if dirOverride != "" {
		return dirOverride
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// FilePath returns the full path to the settings file.
func FilePath() string {
	return filepath.Join(Dir(), branding.ConfigName()+"."+fileType)
}

func setDefaults() {
	viper.SetDefault(KeyRestart, false)
	viper.SetDefault(KeyArchive, branding.ArchiveName())
	viper.SetDefault(KeyGracePeriod, lockwait.DefaultGracePeriod.String())
	viper.SetDefault(KeyPollInterval, lockwait.DefaultPollInterval.String())
	viper.SetDefault(KeyMaxAttempts, lockwait.DefaultMaxAttempts)
	viper.SetDefault(KeyBufferSize, 4096)
	viper.SetDefault(KeyPauseOnError, true)
	viper.SetDefault(KeyForce, false)
	viper.SetDefault(KeyInstalledVersion, "")
	viper.SetDefault(KeyPreserve, []string{branding.LayoutFile()})

	var rules []map[string]string
	for _, r := range remap.DefaultRules() {
		rules = append(rules, map[string]string{"from": r.From, "to": r.To})
	}
	viper.SetDefault(KeyRules, rules)
}

// Load initializes Viper from the settings file and the environment.
// A missing file is not an error.
func Load() error {
	setDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", FilePath(), err)
	}
	return nil
}

// Reset clears all loaded state. Tests call it between cases.
func Reset() {
	viper.Reset()
	SetDir("")
}

// Current returns the resolved settings.
func Current() (Settings, error) {
	s := Settings{
		Restart:          viper.GetBool(KeyRestart),
		Archive:          viper.GetString(KeyArchive),
		GracePeriod:      viper.GetDuration(KeyGracePeriod),
		PollInterval:     viper.GetDuration(KeyPollInterval),
		MaxAttempts:      viper.GetInt(KeyMaxAttempts),
		BufferSize:       viper.GetInt(KeyBufferSize),
		PauseOnError:     viper.GetBool(KeyPauseOnError),
		Force:            viper.GetBool(KeyForce),
		InstalledVersion: viper.GetString(KeyInstalledVersion),
		Preserve:         viper.GetStringSlice(KeyPreserve),
	}
	if err := viper.UnmarshalKey(KeyRules, &s.Rules); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", KeyRules, err)
	}
	if s.Archive == "" {
		s.Archive = branding.ArchiveName()
	}
	return s, nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the settings file. The value
// is parsed as a YAML scalar, so "true" and "20" are stored as a boolean and
// an integer.
func Set(key, value string) error {
	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
		parsed = value
	}
	viper.Set(key, parsed)

	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", Dir(), err)
	}
	if err := viper.WriteConfigAs(FilePath()); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
