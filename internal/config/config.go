// Package config loads the yaml configuration with ${ENV_VAR} expansion.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken          string  `yaml:"bot_token"`
		Debug             bool    `yaml:"debug"`
		SendRatePerSecond float64 `yaml:"send_rate_per_second"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		StateTTLMinutes int    `yaml:"state_ttl_minutes"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		MinuteStep      int  `yaml:"minute_step"`
		MinYear         int  `yaml:"min_year"`
		NegativeIDAdmin bool `yaml:"negative_id_admin"`
	} `yaml:"booking"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/roombot.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MinuteStep is the booking time granularity in minutes.
func (c *Config) MinuteStep() int {
	if c.Booking.MinuteStep <= 0 {
		return 15
	}
	return c.Booking.MinuteStep
}

// CalendarMinYear bounds how far back the calendar cursor can navigate.
func (c *Config) CalendarMinYear() int {
	if c.Booking.MinYear <= 0 {
		return time.Now().Year()
	}
	return c.Booking.MinYear
}

// StateTTL is how long an abandoned dialog survives in redis.
func (c *Config) StateTTL() time.Duration {
	if c.Redis.StateTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.StateTTLMinutes) * time.Minute
}

// BackupInterval is the pause between database backups.
func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

// SendRate caps outgoing Telegram messages per second.
func (c *Config) SendRate() float64 {
	if c.Telegram.SendRatePerSecond <= 0 {
		return 25
	}
	return c.Telegram.SendRatePerSecond
}
