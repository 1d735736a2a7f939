// =============================================================================
// config.go - Configuration Loading (Defaults, File, Environment, Flags)
// =============================================================================
//
// Settings are merged in increasing order of precedence:
//
//	built-in defaults < config file < environment < command-line flags
//
// The config file is YAML. Without --config, ~/.config/mpdc/config.yaml is
// read if it exists. Environment variables use the MPDC_ prefix with dots
// replaced by underscores (MPDC_LOG_LEVEL), and the conventional MPD_HOST
// and MPD_PORT are honored as well.
//
// Example config.yaml:
//
//	host: music.local
//	port: 6600
//	timeout: 10s
//	match: chunk
//	log:
//	  level: info
//	  outputs: [stderr]
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mpdwire/mpdwire/mpdprotocol"
)

const (
	// envPrefix is prepended to environment variable names.
	envPrefix = "MPDC"

	// configDirName is the directory under ~/.config holding config.yaml.
	configDirName = "mpdc"
)

// Config is the effective CLI configuration.
type Config struct {
	// Host is the MPD server host name or address.
	Host string `mapstructure:"host"`

	// Port is the MPD server TCP port.
	Port uint16 `mapstructure:"port"`

	// Timeout bounds each command round trip. Zero waits forever.
	Timeout time.Duration `mapstructure:"timeout"`

	// Match selects how replies are delimited: "chunk" or "accumulated".
	Match string `mapstructure:"match"`

	// Raw prints replies byte for byte instead of formatting them.
	Raw bool `mapstructure:"raw"`

	// Log holds logging configuration.
	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`
	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() Config {
	return Config{
		Host:    mpdprotocol.DefaultHost,
		Port:    mpdprotocol.DefaultPort,
		Timeout: 0,
		Match:   mpdprotocol.MatchChunk.String(),
		Log: LogConfig{
			Level:   "warn",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Enable:     false,
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   false,
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultConfig()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("match", d.Match)
	v.SetDefault("raw", d.Raw)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.outputs", d.Log.Outputs)
	v.SetDefault("log.rotation.enable", d.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", d.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", d.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", d.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", d.Log.Rotation.Compress)
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"host":      "host",
	"port":      "port",
	"timeout":   "timeout",
	"match":     "match",
	"raw":       "raw",
	"log-level": "log.level",
}

// loadConfig merges defaults, the config file, the environment and flags.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("host", envPrefix+"_HOST", "MPD_HOST"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("port", envPrefix+"_PORT", "MPD_PORT"); err != nil {
		return nil, err
	}

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	for flag, key := range flagKeys {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if flags.Changed("log-file") {
		path, _ := flags.GetString("log-file")
		cfg.Log.Outputs = []string{path}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	path, _ := flags.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}

	home := homeDir()
	if home == "" {
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(home, ".config", configDirName))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("host must not be empty")
	}
	if c.Port == 0 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	if _, err := mpdprotocol.ParseMatchMode(c.Match); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// MatchMode returns the parsed match mode. The config is validated on
// load, so the parse cannot fail here.
func (c *Config) MatchMode() mpdprotocol.MatchMode {
	mode, _ := mpdprotocol.ParseMatchMode(c.Match)
	return mode
}

// yamlConfig is the printable form of Config.
type yamlConfig struct {
	Host    string  `yaml:"host"`
	Port    uint16  `yaml:"port"`
	Timeout string  `yaml:"timeout"`
	Match   string  `yaml:"match"`
	Raw     bool    `yaml:"raw"`
	Log     yamlLog `yaml:"log"`
}

type yamlLog struct {
	Level    string       `yaml:"level"`
	Format   string       `yaml:"format"`
	Outputs  []string     `yaml:"outputs"`
	Rotation yamlRotation `yaml:"rotation"`
}

type yamlRotation struct {
	Enable     bool `yaml:"enable"`
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// YAML renders the configuration in the config file format.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(yamlConfig{
		Host:    c.Host,
		Port:    c.Port,
		Timeout: c.Timeout.String(),
		Match:   c.Match,
		Raw:     c.Raw,
		Log: yamlLog{
			Level:   c.Log.Level,
			Format:  c.Log.Format,
			Outputs: c.Log.Outputs,
			Rotation: yamlRotation{
				Enable:     c.Log.Rotation.Enable,
				MaxSizeMB:  c.Log.Rotation.MaxSizeMB,
				MaxBackups: c.Log.Rotation.MaxBackups,
				MaxAgeDays: c.Log.Rotation.MaxAgeDays,
				Compress:   c.Log.Rotation.Compress,
			},
		},
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
