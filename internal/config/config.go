package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Quote    QuoteConfig
	Database DatabaseConfig
	Log      LogConfig
}

// QuoteConfig defines where and how often the asset price is fetched.
type QuoteConfig struct {
	Source   string
	URL      string
	Asset    string
	Fiat     string
	Symbol   string
	Pair     string
	Unit     string
	Interval time.Duration
	Timeout  time.Duration
}

// DatabaseConfig defines the local ledger storage settings.
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// LogConfig defines the logger output.
type LogConfig struct {
	Level  string
	Format string
}

// DSN returns the postgres connection string for the database settings.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.DBName,
	}
	return u.String()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("quote.source", "coingecko")
	v.SetDefault("quote.url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("quote.asset", "bitcoin")
	v.SetDefault("quote.fiat", "usd")
	v.SetDefault("quote.symbol", "btcusdt")
	v.SetDefault("quote.pair", "XBT/USD")
	v.SetDefault("quote.unit", "BTC")
	v.SetDefault("quote.interval", time.Minute)
	v.SetDefault("quote.timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "stacker.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "stacker")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "stacker")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error: defaults and the environment apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("stacker")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}

	err = config.Validate()
	return
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Quote.Source {
	case "coingecko", "binance", "kraken":
	default:
		return fmt.Errorf("unknown quote source: %s", c.Quote.Source)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}
	if c.Quote.Interval <= 0 {
		return fmt.Errorf("quote interval must be positive, got %s", c.Quote.Interval)
	}
	return nil
}
