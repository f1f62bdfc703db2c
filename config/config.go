package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	BaseURL  string
	JWTToken string
	UserID   int

	StockTickers []string

	HTTPTimeout      time.Duration
	QuoteSettleDelay time.Duration

	Poll PollIntervals
}

// PollIntervals carries one refresh cadence per data source. The aggregate
// stats and last-update feeds poll slower than the price feeds.
type PollIntervals struct {
	Balance    time.Duration
	BTCPrice   time.Duration
	Pairs      time.Duration
	Stocks     time.Duration
	Trades     time.Duration
	Stats      time.Duration
	LastUpdate time.Duration
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".tradedash")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("base_url", "http://localhost:8000/api")
	viper.SetDefault("user_id", 1)
	viper.SetDefault("stock_tickers", []string{"AAPL", "TSLA", "GOOGL", "MSFT", "AMZN"})
	viper.SetDefault("http_timeout", "10s")
	viper.SetDefault("quote_settle_delay", "0s")
	viper.SetDefault("poll.balance", "30s")
	viper.SetDefault("poll.btc_price", "30s")
	viper.SetDefault("poll.pairs", "30s")
	viper.SetDefault("poll.stocks", "60s")
	viper.SetDefault("poll.trades", "30s")
	viper.SetDefault("poll.stats", "5m")
	viper.SetDefault("poll.last_update", "5m")

	// Read from environment variables
	viper.SetEnvPrefix("TRADEDASH")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		BaseURL:          viper.GetString("base_url"),
		JWTToken:         viper.GetString("jwt_token"),
		UserID:           viper.GetInt("user_id"),
		StockTickers:     viper.GetStringSlice("stock_tickers"),
		HTTPTimeout:      viper.GetDuration("http_timeout"),
		QuoteSettleDelay: viper.GetDuration("quote_settle_delay"),
		Poll: PollIntervals{
			Balance:    viper.GetDuration("poll.balance"),
			BTCPrice:   viper.GetDuration("poll.btc_price"),
			Pairs:      viper.GetDuration("poll.pairs"),
			Stocks:     viper.GetDuration("poll.stocks"),
			Trades:     viper.GetDuration("poll.trades"),
			Stats:      viper.GetDuration("poll.stats"),
			LastUpdate: viper.GetDuration("poll.last_update"),
		},
	}

	globalConfig = cfg
	return cfg, nil
}

// RequireToken fails when no JWT token is configured. Commands hitting
// authenticated endpoints call this up front so the user gets one clear
// message instead of a 401 per source.
func (c *Config) RequireToken() error {
	if c.JWTToken == "" {
		return fmt.Errorf("JWT token not found. Please set TRADEDASH_JWT_TOKEN, run 'tradedash login', or create a .tradedash.yaml config file")
	}
	return nil
}

// Token returns the current bearer token. It re-reads viper state on every
// call so a token refreshed by an external process is picked up without
// restarting running pollers.
func Token() string {
	return viper.GetString("jwt_token")
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
