// Package config loads runtime configuration for a slipway session from
// .slipway.yaml, SLIPWAY_* env vars, and CLI flags via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/harborline/slipway/internal/timeline"
)

// Config holds all runtime configuration for a slipway session.
type Config struct {
	DBPath        string `mapstructure:"db_path"`
	HoursPerDay   int    `mapstructure:"hours_per_day"`
	DayStart      string `mapstructure:"day_start"`  // clock time, "07:00"
	StartDate     string `mapstructure:"start_date"` // schedule origin, "2026-01-05"
	AttemptBudget int    `mapstructure:"attempt_budget"`
	TelemetryPath string `mapstructure:"telemetry_path"`
	Seed          int64  `mapstructure:"seed"`
	Verbose       bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("db_path", ".slipway.db")
	viper.SetDefault("hours_per_day", 8)
	viper.SetDefault("day_start", "07:00")
	viper.SetDefault("start_date", "")
	viper.SetDefault("attempt_budget", 20)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("seed", 0)
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Timeline builds the working calendar from the configured values. An
// empty start_date anchors the schedule to today.
func (c Config) Timeline() (timeline.Config, error) {
	startDate := time.Now().Truncate(24 * time.Hour)
	if c.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", c.StartDate)
		if err != nil {
			return timeline.Config{}, fmt.Errorf("config: start_date %q: %w", c.StartDate, err)
		}
		startDate = parsed
	}

	dayStart, err := time.Parse("15:04", c.DayStart)
	if err != nil {
		return timeline.Config{}, fmt.Errorf("config: day_start %q: %w", c.DayStart, err)
	}

	hoursPerDay := c.HoursPerDay
	if hoursPerDay <= 0 {
		hoursPerDay = 8
	}

	return timeline.Config{
		HoursPerDay:  hoursPerDay,
		StartDate:    startDate,
		DayStartHour: float64(dayStart.Hour()) + float64(dayStart.Minute())/60,
	}, nil
}
