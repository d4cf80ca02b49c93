package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis (optional; empty disables the summary cache)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Simulation
	SimulationWorkers int   `mapstructure:"SIMULATION_WORKERS"`
	SimulationSeed    int64 `mapstructure:"SIMULATION_SEED"`

	// Training
	TrainingCronSpec string `mapstructure:"TRAINING_CRON_SPEC"`
	RetentionDays    int    `mapstructure:"SIMULATION_RETENTION_DAYS"`

	// External APIs (geocoder / elevation / weather)
	GeocoderURL        string        `mapstructure:"GEOCODER_URL"`
	ElevationURL       string        `mapstructure:"ELEVATION_URL"`
	WeatherURL         string        `mapstructure:"WEATHER_URL"`
	WeatherArchiveURL  string        `mapstructure:"WEATHER_ARCHIVE_URL"`
	ExternalAPITimeout time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	ExternalAPIRate    float64       `mapstructure:"EXTERNAL_API_RATE"`
	BreakerThreshold   int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("PORT", "8084")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("DATABASE_URL", "file:matchdata.db?cache=shared")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("SIMULATION_WORKERS", 0) // 0 = NumCPU
	viper.SetDefault("SIMULATION_SEED", 0)    // 0 = time-derived
	viper.SetDefault("TRAINING_CRON_SPEC", "0 3 * * *")
	viper.SetDefault("SIMULATION_RETENTION_DAYS", 10)
	viper.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/search")
	viper.SetDefault("ELEVATION_URL", "https://api.open-elevation.com/api/v1/lookup")
	viper.SetDefault("WEATHER_URL", "https://api.open-meteo.com/v1/forecast")
	viper.SetDefault("WEATHER_ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive")
	viper.SetDefault("EXTERNAL_API_TIMEOUT", "10s")
	viper.SetDefault("EXTERNAL_API_RATE", 1.0) // requests per second per provider
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
