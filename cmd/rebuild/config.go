package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Project   ProjectConfig   `mapstructure:"project"`
	Sequence  SequenceConfig  `mapstructure:"sequence"`
	Log       LogConfig       `mapstructure:"log"`
	Docker    DockerConfig    `mapstructure:"docker"`
	Preflight PreflightConfig `mapstructure:"preflight"`
	Report    ReportConfig    `mapstructure:"report"`
	History   HistoryConfig   `mapstructure:"history"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ProjectConfig locates the RTA checkout.
type ProjectConfig struct {
	// Root is the directory Frontend/ lives in.
	// Empty means the directory of the rebuild executable.
	Root string `mapstructure:"root"`

	// ComposeDir is where `docker compose up -d` runs. Empty inherits the
	// caller's working directory. Relative paths are joined to Root.
	ComposeDir string `mapstructure:"compose_dir"`
}

// SequenceConfig holds the knobs of the fixed sequence.
type SequenceConfig struct {
	DockerProgram string `mapstructure:"docker_program"`
	NpmProgram    string `mapstructure:"npm_program"`

	// StrictExit makes the process exit 1 when any step failed.
	// All steps still run.
	StrictExit bool `mapstructure:"strict_exit"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DockerConfig holds Docker Engine client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// PreflightConfig controls the compose file summary logged before step 1.
type PreflightConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ReportConfig controls the container status report logged after step 5.
type ReportConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HistoryConfig holds the run journal configuration.
type HistoryConfig struct {
	// DSN is the SQLite database path. Empty disables the journal.
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig holds the Prometheus textfile configuration.
type MetricsConfig struct {
	// Textfile is the output path. Empty disables metrics.
	Textfile string `mapstructure:"textfile"`
}

// =============================================================================
// Config Loading
// =============================================================================

// ConfigPathEnv names the optional config file. The binary reads no flags.
const ConfigPathEnv = "REBUILD_CONFIG"

// ErrConfigFile marks a config file that could not be used.
var ErrConfigFile = errors.New("config file unusable")

// LoadConfig loads configuration from file and environment.
//
// A config file that is missing, unreadable, of an unsupported type or
// invalid does not stop a rebuild: the returned Config then holds the
// defaults merged with the environment, and the error wraps ErrConfigFile.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()

	var fileErr error
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			fileErr = fmt.Errorf("%w: %s: %w", ErrConfigFile, configPath, err)
			// Drop anything a partial read left behind.
			v = newViper()
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("REBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), errors.Join(fileErr, fmt.Errorf("failed to unmarshal config: %w", err))
	}

	return &cfg, fileErr
}

// DefaultConfig returns the built-in defaults, ignoring file and environment.
func DefaultConfig() *Config {
	var cfg Config
	_ = newViper().Unmarshal(&cfg)
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("project.root", "")
	v.SetDefault("project.compose_dir", "")
	v.SetDefault("sequence.docker_program", "docker")
	v.SetDefault("sequence.npm_program", "npm")
	v.SetDefault("sequence.strict_exit", false) // Exit 0 regardless of step failures
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("docker.host", "")
	v.SetDefault("preflight.enabled", true)
	v.SetDefault("report.enabled", false)
	v.SetDefault("report.timeout", "10s")
	v.SetDefault("history.dsn", "")
	v.SetDefault("metrics.textfile", "")
	return v
}

// =============================================================================
// Path Resolution
// =============================================================================

// ResolveProjectRoot returns the absolute project root. An empty root
// resolves to the directory holding the running executable, following
// symlinks, so Frontend/ is found next to the binary rather than under the
// caller's working directory.
func ResolveProjectRoot(root string) (string, error) {
	if root != "" {
		return filepath.Abs(root)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Logs go to w so the children's stdout is left alone.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
