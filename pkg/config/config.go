package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Game      GameConfig      `mapstructure:"game"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	LogLevel  string          `mapstructure:"log_level"`
}

type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	PushURL        string        `mapstructure:"push_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type GameConfig struct {
	GameID string `mapstructure:"game_id"`
}

type AnalyticsConfig struct {
	MaxBatchSize  int           `mapstructure:"max_batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoadConfig reads config.yaml from path, with environment variable
// overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("gamefold")
	v.AutomaticEnv()

	v.SetDefault("backend.request_timeout", 10*time.Second)
	v.SetDefault("analytics.max_batch_size", 100)
	v.SetDefault("analytics.flush_interval", 10*time.Second)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %v", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}
	return config, nil
}
