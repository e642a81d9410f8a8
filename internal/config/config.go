// Package config defines the pricing server configuration and provides
// loading and validation helpers. Fields are populated from a TOML file and
// then optionally overridden by OPTIONLAB_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig `toml:"server"`
	Defaults FormDefaults `toml:"defaults"`
	LogLevel string       `toml:"log_level"`
}

// ServerConfig holds the HTTP listener parameters.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// FormDefaults pre-fills the pricing form.
type FormDefaults struct {
	Spot        float64 `toml:"spot"`
	Strike      float64 `toml:"strike"`
	Maturity    float64 `toml:"maturity"`
	Rate        float64 `toml:"rate"`
	Volatility  float64 `toml:"volatility"`
	Simulations int     `toml:"simulations"`
	Steps       int     `toml:"steps"`
	OptionKind  string  `toml:"option_kind"`
}

// duration lets TOML carry values like "10s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func (d duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is present. The form
// defaults match the original service's pricing page.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":5000",
			ReadTimeout:  duration(10 * time.Second),
			WriteTimeout: duration(30 * time.Second),
		},
		Defaults: FormDefaults{
			Spot:        100,
			Strike:      100,
			Maturity:    1,
			Rate:        0.05,
			Volatility:  0.2,
			Simulations: 20000,
			Steps:       1,
			OptionKind:  "call",
		},
		LogLevel: "info",
	}
}

// Load reads the TOML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPTIONLAB_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("OPTIONLAB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OPTIONLAB_SIMULATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Defaults.Simulations = n
		}
	}
}

// Validate returns an error naming the first bad field.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	d := c.Defaults
	if d.Spot <= 0 || d.Strike <= 0 || d.Maturity <= 0 || d.Volatility <= 0 {
		return fmt.Errorf("defaults: spot, strike, maturity and volatility must be positive")
	}
	if d.Simulations < 1 || d.Steps < 1 {
		return fmt.Errorf("defaults: simulations and steps must be at least 1")
	}
	if d.OptionKind != "call" && d.OptionKind != "put" {
		return fmt.Errorf("defaults.option_kind %q is not one of call, put", d.OptionKind)
	}
	return nil
}
