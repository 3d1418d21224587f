// Package config loads autopin's settings from defaults, an optional
// YAML file and AUTOPIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPort is the WebSocket port the extension connects to.
const DefaultPort = 19293

// Config is the resolved configuration.
type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Log struct {
		Dir   string `mapstructure:"dir"`
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Firefox struct {
		Profile string `mapstructure:"profile"`
	} `mapstructure:"firefox"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Paths are the per-user default locations.
type Paths struct {
	ConfigDir string
	DataDir   string
	DBPath    string
	LogDir    string
}

// DefaultPaths returns ~/.config/autopin for configuration and
// ~/.local/share/autopin for the database and logs.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("get home directory: %w", err)
	}
	cfgBase, err := os.UserConfigDir()
	if err != nil {
		cfgBase = filepath.Join(home, ".config")
	}
	data := filepath.Join(home, ".local", "share", "autopin")
	return Paths{
		ConfigDir: filepath.Join(cfgBase, "autopin"),
		DataDir:   data,
		DBPath:    filepath.Join(data, "autopin.db"),
		LogDir:    data,
	}, nil
}

// Load resolves the configuration. cfgFile names an explicit YAML file
// that must exist; when empty, config.yaml in the default config
// directory is read if present.
func Load(cfgFile string) (*Config, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("database.path", paths.DBPath)
	v.SetDefault("log.dir", paths.LogDir)
	v.SetDefault("log.level", "info")
	v.SetDefault("firefox.profile", "")

	v.SetConfigType("yaml")
	if cfgFile != "" {
		expanded, err := ExpandTilde(cfgFile)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(paths.ConfigDir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("AUTOPIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Database.Path, err = ExpandTilde(cfg.Database.Path); err != nil {
		return nil, err
	}
	if cfg.Log.Dir, err = ExpandTilde(cfg.Log.Dir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values a config file or environment could get wrong.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
