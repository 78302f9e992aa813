// Package config resolves settings from defaults, an optional YAML file,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName is the application directory name.
const AppName = "tasksync"

// Backend names.
const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// ErrMissingProject is returned when the firestore backend has no project id.
var ErrMissingProject = errors.New("GOOGLE_CLOUD_PROJECT environment variable is required")

// Config holds the resolved settings.
type Config struct {
	Project         string `mapstructure:"project"`
	Collection      string `mapstructure:"collection"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Remote          string `mapstructure:"remote"`
	Local           string `mapstructure:"local"`
	DataDir         string `mapstructure:"data_dir"`
	Port            string `mapstructure:"port"`
	LINE            LINE   `mapstructure:"line"`
}

// LINE enables the chat webhook when ChannelToken is set.
type LINE struct {
	ChannelToken  string `mapstructure:"channel_token"`
	ChannelSecret string `mapstructure:"channel_secret"`
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("collection", "tasks")
	v.SetDefault("remote", BackendFirestore)
	v.SetDefault("local", BackendSQLite)
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("port", "8080")

	v.SetEnvPrefix("TASKSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by the deployment environment.
	v.BindEnv("project", "TASKSYNC_PROJECT", "GOOGLE_CLOUD_PROJECT")
	v.BindEnv("credentials_file", "TASKSYNC_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("port", "TASKSYNC_PORT", "PORT")
	v.BindEnv("line.channel_token", "TASKSYNC_LINE_CHANNEL_TOKEN", "LINE_CHANNEL_TOKEN")
	v.BindEnv("line.channel_secret", "TASKSYNC_LINE_CHANNEL_SECRET", "LINE_CHANNEL_SECRET")
	return v
}

// Load reads the config file (if any) into v and decodes the result. An
// empty path means DefaultConfigPath, which may be absent.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports missing or unknown settings.
func (c *Config) Validate() error {
	switch c.Remote {
	case BackendFirestore:
		if c.Project == "" {
			return ErrMissingProject
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown remote backend: %s", c.Remote)
	}

	switch c.Local {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown local backend: %s", c.Local)
	}

	if c.LINE.ChannelToken != "" && c.LINE.ChannelSecret == "" {
		return errors.New("LINE_CHANNEL_SECRET is required when LINE_CHANNEL_TOKEN is set")
	}
	return nil
}

// DBPath returns the local SQLite database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "local.db")
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/tasksync/config.yaml, falling
// back to $HOME/.config.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(AppName, "config.yaml")
	}
	return filepath.Join(home, ".config", AppName, "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/tasksync, falling back to
// $HOME/.local/share.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".local", "share", AppName)
}
