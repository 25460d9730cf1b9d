// Package config resolves runtime configuration from an optional YAML file
// merged with environment overrides, so both local runs and deployments work
// without flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	// BotToken is the Telegram bot token. Empty disables delivery
	// (messages are discarded), which keeps local runs and tests working.
	BotToken string

	// DBPath is the SQLite database file.
	DBPath string

	// ListenAddr serves the ops endpoints (health, metrics, reports).
	ListenAddr string

	// SettleAt is the daily wall-clock settlement instant, "HH:MM".
	SettleAt string

	// RedisAddr backs the confirmation-code store when set; empty keeps
	// codes in process memory.
	RedisAddr string

	// InviteSecret signs invite tokens; InviteTTL bounds their lifetime.
	InviteSecret string
	InviteTTL    time.Duration

	// CodeTTL bounds confirmation-code lifetime.
	CodeTTL time.Duration
}

// configFile mirrors the YAML schema. It is separate from Config so the
// resolved struct can carry parsed durations.
type configFile struct {
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Settlement struct {
		FireAt string `yaml:"fire_at"`
	} `yaml:"settlement"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Invite struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
	} `yaml:"invite"`
	Codes struct {
		TTL string `yaml:"ttl"`
	} `yaml:"codes"`
}

// Load reads the YAML file at path (skipped when path is empty or missing)
// and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	var file configFile
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg := &Config{
		BotToken:     getEnv("BOT_TOKEN", file.Telegram.Token),
		DBPath:       getEnv("DB_PATH", defaultStr(file.Database.Path, "./data/chorebank.db")),
		ListenAddr:   getEnv("LISTEN_ADDR", defaultStr(file.Server.Addr, ":8080")),
		SettleAt:     getEnv("SETTLE_AT", defaultStr(file.Settlement.FireAt, "23:59")),
		RedisAddr:    getEnv("REDIS_ADDR", file.Redis.Addr),
		InviteSecret: getEnv("INVITE_SECRET", file.Invite.Secret),
	}

	var err error
	cfg.InviteTTL, err = parseTTL(getEnv("INVITE_TTL", defaultStr(file.Invite.TTL, "48h")))
	if err != nil {
		return nil, fmt.Errorf("invite ttl: %w", err)
	}
	cfg.CodeTTL, err = parseTTL(getEnv("CODE_TTL", defaultStr(file.Codes.TTL, "5m")))
	if err != nil {
		return nil, fmt.Errorf("code ttl: %w", err)
	}

	return cfg, nil
}

func parseTTL(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", s)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultStr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
