package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/spf13/viper"
)

type Config struct {
	DBPath        string `mapstructure:"MAPTY_DB_PATH"`
	Store         string `mapstructure:"MAPTY_STORE"`
	RedisAddr     string `mapstructure:"MAPTY_REDIS_ADDR"`
	RedisPassword string `mapstructure:"MAPTY_REDIS_PASSWORD"`
	StorageKey    string `mapstructure:"MAPTY_STORAGE_KEY"`
	Addr          string `mapstructure:"MAPTY_ADDR"`
	HomeLat       string `mapstructure:"MAPTY_HOME_LAT"`
	HomeLng       string `mapstructure:"MAPTY_HOME_LNG"`
	Zoom          int    `mapstructure:"MAPTY_ZOOM"`
	UIDir         string `mapstructure:"MAPTY_UI_DIR"`
	MapboxToken   string `mapstructure:"MAPBOX_TOKEN"`
	LogLevel      string `mapstructure:"MAPTY_LOG_LEVEL"`
	LogFormat     string `mapstructure:"MAPTY_LOG_FORMAT"`
	Strict        bool   `mapstructure:"MAPTY_STRICT"`
}

// Load reads the MAPTY_* environment over the defaults. A value that cannot
// be decoded into its field is an error.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MAPTY_DB_PATH", "./mapty.db")
	v.SetDefault("MAPTY_STORE", "sqlite")
	v.SetDefault("MAPTY_REDIS_ADDR", "")
	v.SetDefault("MAPTY_REDIS_PASSWORD", "")
	v.SetDefault("MAPTY_STORAGE_KEY", "workouts")
	v.SetDefault("MAPTY_ADDR", ":8222")
	v.SetDefault("MAPTY_HOME_LAT", "")
	v.SetDefault("MAPTY_HOME_LNG", "")
	v.SetDefault("MAPTY_ZOOM", 12)
	v.SetDefault("MAPTY_UI_DIR", "./ui")
	v.SetDefault("MAPBOX_TOKEN", "")
	v.SetDefault("MAPTY_LOG_LEVEL", "info")
	v.SetDefault("MAPTY_LOG_FORMAT", "text")
	v.SetDefault("MAPTY_STRICT", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error reading config: %w", err)
	}
	return cfg, nil
}

// Home is the configured starting position, nil when unset or out of range.
func (c Config) Home() *workout.Coordinates {
	lat, err := strconv.ParseFloat(strings.TrimSpace(c.HomeLat), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(c.HomeLng), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil
	}
	return &workout.Coordinates{Lat: lat, Lng: lng}
}
