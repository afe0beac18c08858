// Package config loads client settings from defaults, an optional config
// file, CHROMASEEK_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/csheth/chromaseek/internal/prefs"
)

// EnvPrefix namespaces environment overrides, e.g. CHROMASEEK_API_BASE.
const EnvPrefix = "CHROMASEEK"

// Config holds every setting of one client run.
type Config struct {
	APIBase     string        `mapstructure:"api_base"`
	TopK        int           `mapstructure:"top_k"`
	NotifyAfter time.Duration `mapstructure:"notify_after"`
	PrefsPath   string        `mapstructure:"prefs_path"`
	DropDir     string        `mapstructure:"drop_dir"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	LogFile     string        `mapstructure:"log_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base", "http://localhost:8000")
	v.SetDefault("top_k", 6)
	v.SetDefault("notify_after", 2200*time.Millisecond)
	v.SetDefault("prefs_path", prefs.DefaultPath())
	v.SetDefault("drop_dir", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_file", "chromaseek.log")
}

// Load resolves the configuration. path may be empty, in which case a
// chromaseek.{yaml,json,toml} in the working directory or the user config
// directory is used when present. Changed flags in flags override everything
// else; flag names use dashes where keys use underscores.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] read .env: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("chromaseek")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "chromaseek"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !knownKeys[key] {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

var knownKeys = map[string]bool{
	"api_base":     true,
	"top_k":        true,
	"notify_after": true,
	"prefs_path":   true,
	"drop_dir":     true,
	"metrics_addr": true,
	"log_file":     true,
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return errors.New("config: api_base must not be empty")
	}
	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("config: top_k must be within 1..20, got %d", c.TopK)
	}
	if c.NotifyAfter <= 0 {
		return fmt.Errorf("config: notify_after must be positive, got %s", c.NotifyAfter)
	}
	return nil
}
