// Package config loads irgraph settings from defaults, an optional YAML
// file and IRGRAPH_* environment variables, in increasing precedence.
// Command-line flags bound with viper.BindPFlag win over all three.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/kolkov/irgraph/internal/pass"
)

// EnvPrefix prefixes every environment variable, e.g. IRGRAPH_GRAPH_PATH.
const EnvPrefix = "IRGRAPH"

// Keys.
const (
	KeyGraphPath    = "graph_path"
	KeyLogPath      = "log_path"
	KeyLoggerSymbol = "logger_symbol"
	KeyInitSymbol   = "init_symbol"
	KeyEntryInit    = "entry_init"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
)

// Defaults.
const (
	DefaultGraphPath = "assets/graph.dot"
	DefaultLogPath   = "assets/dynamic.log"
)

// Config is the resolved configuration.
type Config struct {
	GraphPath    string             `mapstructure:"graph_path"`
	LogPath      string             `mapstructure:"log_path"`
	LoggerSymbol string             `mapstructure:"logger_symbol"`
	InitSymbol   string             `mapstructure:"init_symbol"`
	EntryInit    pass.EntryInitMode `mapstructure:"entry_init"`
	LogLevel     string             `mapstructure:"log_level"`
	LogFormat    string             `mapstructure:"log_format"`
}

// New returns a viper instance with every key defaulted and environment
// lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyGraphPath, DefaultGraphPath)
	v.SetDefault(KeyLogPath, DefaultLogPath)
	v.SetDefault(KeyLoggerSymbol, pass.DefaultLoggerSymbol)
	v.SetDefault(KeyInitSymbol, pass.DefaultInitSymbol)
	v.SetDefault(KeyEntryInit, string(pass.EntryInitPerFunction))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file into v when file is not empty, then decodes and
// validates the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the pass or runtime cannot use.
func (c *Config) Validate() error {
	if !c.EntryInit.Valid() {
		return errors.Errorf("%s: unknown mode %q (want %s or %s)",
			KeyEntryInit, c.EntryInit, pass.EntryInitPerFunction, pass.EntryInitFirstFunction)
	}
	if c.LoggerSymbol == "" || c.InitSymbol == "" {
		return errors.Errorf("%s and %s must not be empty", KeyLoggerSymbol, KeyInitSymbol)
	}
	if c.LoggerSymbol == c.InitSymbol {
		return errors.Errorf("%s and %s must differ, both are %q", KeyLoggerSymbol, KeyInitSymbol, c.LoggerSymbol)
	}
	if c.GraphPath == "" {
		return errors.Errorf("%s must not be empty", KeyGraphPath)
	}
	if c.LogPath == "" {
		return errors.Errorf("%s must not be empty", KeyLogPath)
	}
	return nil
}

// PassOptions returns the pass options this configuration selects.
func (c *Config) PassOptions() pass.Options {
	return pass.Options{
		LoggerSymbol: c.LoggerSymbol,
		InitSymbol:   c.InitSymbol,
		EntryInit:    c.EntryInit,
	}
}
