package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment variables
// and an optional configs/config.yaml file.
type Config struct {
	ServerPort     string        `mapstructure:"server_port"`
	DBDriver       string        `mapstructure:"db_driver"`
	MySQLDSN       string        `mapstructure:"mysql_dsn"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	ResetDB        bool          `mapstructure:"reset_db"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisDB        int           `mapstructure:"redis_db"`
	RedisPass      string        `mapstructure:"redis_password"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	SwaggerHost    string        `mapstructure:"swagger_host"`
	RequestTimeout time.Duration `mapstructure:"-"`
	LoginRateLimit int           `mapstructure:"login_rate_limit"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// REQUEST_TIMEOUT is expressed in seconds, as in the original deployment.
	cfg.RequestTimeout = time.Duration(v.GetInt("request_timeout")) * time.Second

	return &cfg, nil
}

// setDefaults also registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("mysql_dsn", "user:password@tcp(localhost:3306)/tickets?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("sqlite_path", "database.db")
	v.SetDefault("reset_db", false)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_password", "")
	v.SetDefault("jwt_secret", "change-me")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("swagger_host", "")
	v.SetDefault("request_timeout", 30)
	v.SetDefault("login_rate_limit", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}
