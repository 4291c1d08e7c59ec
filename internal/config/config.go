// Package config loads runtime settings from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the server.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	// GitHubToken authorizes outbound API calls.
	GitHubToken string `yaml:"github_token"`
	// HookURL is the webhook callback template; ":id" is replaced with
	// the project id at registration time.
	HookURL string `yaml:"hook_url"`

	AvatarDir string `yaml:"avatar_dir"`

	StatsCacheTTL        time.Duration `yaml:"-"`
	StatsRefreshInterval time.Duration `yaml:"-"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Duration fields arrive as strings from YAML ("10m", "1h").
	RawStatsCacheTTL        string `yaml:"stats_cache_ttl"`
	RawStatsRefreshInterval string `yaml:"stats_refresh_interval"`
}

// Load reads an optional YAML file, then applies environment variables
// and defaults on top.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	parseRawDuration(&cfg.StatsCacheTTL, cfg.RawStatsCacheTTL)
	parseRawDuration(&cfg.StatsRefreshInterval, cfg.RawStatsRefreshInterval)

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func parseRawDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return
	}
	*dst = d
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.GitHubToken, "GITHUB_TOKEN")
	setString(&cfg.HookURL, "HOOK_URL")
	setString(&cfg.AvatarDir, "AVATAR_DIR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFile, "LOG_FILE")
	setDuration(&cfg.StatsCacheTTL, "STATS_CACHE_TTL")
	setDuration(&cfg.StatsRefreshInterval, "STATS_REFRESH_INTERVAL")
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "tacowasa.db"
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379"
	}
	if cfg.AvatarDir == "" {
		cfg.AvatarDir = "public/images/avatar"
	}
	if cfg.StatsCacheTTL == 0 {
		cfg.StatsCacheTTL = 10 * time.Minute
	}
	if cfg.StatsRefreshInterval == 0 {
		cfg.StatsRefreshInterval = time.Hour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, env string) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return
	}
	*dst = d
}
