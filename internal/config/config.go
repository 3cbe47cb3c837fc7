// Package config loads readcommand settings from flags, the environment, .env files
// and an optional YAML config file, and reloads them when the file changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"readcommand/internal/history"
	"readcommand/internal/prompt"
)

// EnvPrefix is prepended to every environment variable, e.g. READCOMMAND_PS1.
const EnvPrefix = "READCOMMAND"

// Configuration keys. Flags bound with viper.BindPFlag use the same names.
const (
	KeyPS1          = "ps1"
	KeyPS2          = "ps2"
	KeyHistoryFile  = "history-file"
	KeyHistoryLimit = "history-limit"
	KeyCatalog      = "catalog"
	KeyLogLevel     = "log-level"
	KeyLogFile      = "log-file"
	KeyQuiet        = "quiet"
)

var validLogLevels = map[string]bool{
	"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true,
}

// Config is a resolved set of settings.
type Config struct {
	PS1          string `json:"ps1" yaml:"ps1"`
	PS2          string `json:"ps2" yaml:"ps2"`
	HistoryFile  string `json:"historyFile" yaml:"history-file"`
	HistoryLimit int    `json:"historyLimit" yaml:"history-limit"`
	Catalog      string `json:"catalog" yaml:"catalog"`
	LogLevel     string `json:"logLevel" yaml:"log-level"`
	LogFile      string `json:"logFile" yaml:"log-file"`
	Quiet        bool   `json:"quiet" yaml:"quiet"`
}

// Prompts returns the configured prompt templates.
func (c Config) Prompts() prompt.Prompts {
	return prompt.Prompts{PS1: c.PS1, PS2: c.PS2}.WithDefaults()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.HistoryLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("%s must not be negative, got %d", KeyHistoryLimit, c.HistoryLimit))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		result = multierror.Append(result, fmt.Errorf("%s %q is not one of debug, info, warn, error, fatal", KeyLogLevel, c.LogLevel))
	}
	if strings.ContainsAny(c.PS1, "\r\n") {
		result = multierror.Append(result, fmt.Errorf("%s must be a single line", KeyPS1))
	}
	if strings.ContainsAny(c.PS2, "\r\n") {
		result = multierror.Append(result, fmt.Errorf("%s must be a single line", KeyPS2))
	}
	if c.Catalog != "" {
		if _, err := os.Stat(c.Catalog); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s %s: %w", KeyCatalog, c.Catalog, err))
		}
	}

	return result.ErrorOrNil()
}

// DefaultDir returns $XDG_CONFIG_HOME/readcommand, or the platform equivalent.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".readcommand")
	}
	return filepath.Join(dir, "readcommand")
}

// Options selects where configuration is read from.
type Options struct {
	// ConfigFile is an explicit config file. When empty, config.yaml is looked up in
	// DefaultDir and its absence is not an error.
	ConfigFile string
	// DotEnvFile is a .env file whose READCOMMAND_ variables are exported before the
	// environment is read. Variables already set win. A missing file is ignored.
	DotEnvFile string
}

// Loader resolves Config values through a viper instance.
type Loader struct {
	v      *viper.Viper
	logger *log.Logger

	mu      sync.RWMutex
	current Config
}

// NewLoader prepares v with defaults and environment binding.
func NewLoader(v *viper.Viper, logger *log.Logger) *Loader {
	v.SetDefault(KeyPS1, prompt.DefaultPS1)
	v.SetDefault(KeyPS2, prompt.DefaultPS2)
	v.SetDefault(KeyHistoryFile, filepath.Join(DefaultDir(), "history"))
	v.SetDefault(KeyHistoryLimit, history.DefaultLimit)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, logger: logger}
}

// Load reads all sources and returns the validated configuration.
func (l *Loader) Load(opts Options) (Config, error) {
	if opts.DotEnvFile != "" {
		if err := LoadDotEnv(opts.DotEnvFile); err != nil {
			return Config{}, err
		}
	}

	if opts.ConfigFile != "" {
		l.v.SetConfigFile(opts.ConfigFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(DefaultDir())
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		l.logger.Debug("no config file found", "dir", DefaultDir())
	} else {
		l.logger.Debug("loaded config file", "file", l.v.ConfigFileUsed())
	}

	cfg := l.snapshot()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()

	return cfg, nil
}

// SetLogger replaces the logger used for load and reload messages.
func (l *Loader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// Current returns the most recently loaded configuration.
func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with the new configuration each time the config file is
// rewritten. Invalid edits are logged and ignored. Watch does nothing when no config
// file was read.
func (l *Loader) Watch(onChange func(Config)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}

	l.v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}

		cfg := l.snapshot()
		if err := cfg.Validate(); err != nil {
			l.logger.Warn("ignoring invalid config change", "file", event.Name, "error", err)
			return
		}

		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()

		l.logger.Info("configuration reloaded", "file", event.Name)
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()

	return true
}

func (l *Loader) snapshot() Config {
	return Config{
		PS1:          l.v.GetString(KeyPS1),
		PS2:          l.v.GetString(KeyPS2),
		HistoryFile:  l.v.GetString(KeyHistoryFile),
		HistoryLimit: l.v.GetInt(KeyHistoryLimit),
		Catalog:      l.v.GetString(KeyCatalog),
		LogLevel:     l.v.GetString(KeyLogLevel),
		LogFile:      l.v.GetString(KeyLogFile),
		Quiet:        l.v.GetBool(KeyQuiet),
	}
}

// LoadDotEnv exports the READCOMMAND_ variables of a .env file that are not already
// set in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read .env file %s: %w", path, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}

	for key, value := range envMap {
		if !strings.HasPrefix(key, EnvPrefix+"_") {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}
