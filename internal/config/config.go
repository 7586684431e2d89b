// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/seckatie/coffee/internal/core"
)

// Config captures every setting a scrape command needs.
type Config struct {
	DB           string        `mapstructure:"db"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	IndexTimeout time.Duration `mapstructure:"index_timeout"`
	Pace         time.Duration `mapstructure:"pace"`
	Render       bool          `mapstructure:"render"`
	ChromePath   string        `mapstructure:"chrome_path"`
	MetricsFile  string        `mapstructure:"metrics_file"`
	Debug        bool          `mapstructure:"debug"`
}

// flagKeys maps config keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"db":            "db",
	"base_url":      "base-url",
	"timeout":       "timeout",
	"index_timeout": "index-timeout",
	"pace":          "pace",
	"render":        "render",
	"chrome_path":   "chrome-path",
	"metrics_file":  "metrics-file",
	"debug":         "debug",
}

// Load builds a Config from defaults, the optional file at path and any flags
// set in flags. Flags win over the file; the file wins over defaults.
// Environment variables are not consulted.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "coffee.db")
	v.SetDefault("base_url", core.DefaultBaseURL)
	v.SetDefault("timeout", core.DefaultPageTimeout)
	v.SetDefault("index_timeout", core.DefaultIndexTimeout)
	v.SetDefault("pace", core.DefaultPace)
	v.SetDefault("render", false)
	v.SetDefault("chrome_path", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("debug", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db must be set")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.IndexTimeout <= 0 {
		return fmt.Errorf("index_timeout must be > 0")
	}
	if c.Pace < 0 {
		return fmt.Errorf("pace must not be negative")
	}
	return nil
}
