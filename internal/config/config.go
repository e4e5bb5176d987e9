package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	Host string `mapstructure:"host"`
}

// DatabaseConfig configures the registry database, the system of record for
// connections, datasets, and materialized rows.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSL      string `mapstructure:"ssl"`
}

type SecurityConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTExpiration      time.Duration `mapstructure:"jwt_expiration"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst"`
	EnableAuth         bool          `mapstructure:"enable_auth"`
	EnableRateLimit    bool          `mapstructure:"enable_rate_limit"`

	// MasterKey seals stored credentials; empty falls back to the
	// plaintext in-memory store
	MasterKey string `mapstructure:"master_key"`
}

// SyncConfig bounds what one sync pass pulls from a source engine
type SyncConfig struct {
	MaxTables          int           `mapstructure:"max_tables"`
	MaxRows            int           `mapstructure:"max_rows"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout       time.Duration `mapstructure:"query_timeout"`
	ReplaceOnScheduled bool          `mapstructure:"replace_on_scheduled"`
	ReplaceOnAdhoc     bool          `mapstructure:"replace_on_adhoc"`
}

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.host", "0.0.0.0")

	// Registry database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "3306")
	viper.SetDefault("database.database", "dataviz_sync")
	viper.SetDefault("database.username", "dataviz_user")
	viper.SetDefault("database.ssl", "false")

	// Security defaults
	viper.SetDefault("security.jwt_secret", "your-secret-key")
	viper.SetDefault("security.jwt_expiration", "24h")
	viper.SetDefault("security.rate_limit_per_minute", 120)
	viper.SetDefault("security.rate_limit_burst", 20)
	viper.SetDefault("security.enable_auth", true)
	viper.SetDefault("security.enable_rate_limit", true)
	viper.SetDefault("security.master_key", "")

	// Sync defaults
	viper.SetDefault("sync.max_tables", 5)
	viper.SetDefault("sync.max_rows", 10000)
	viper.SetDefault("sync.connect_timeout", "10s")
	viper.SetDefault("sync.query_timeout", "30s")
	viper.SetDefault("sync.replace_on_scheduled", true)
	viper.SetDefault("sync.replace_on_adhoc", false)

	// Scheduler defaults
	viper.SetDefault("scheduler.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
