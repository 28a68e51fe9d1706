// Package config 加载并校验进程配置。
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回全默认配置，测试与零配置启动用。
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8090"
	}
	if c.Market.RESTBaseURL == "" {
		c.Market.RESTBaseURL = "https://fapi.binance.com"
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = 15
	}
	if c.Market.QuoteAsset == "" {
		c.Market.QuoteAsset = "USDT"
	}
	if c.Market.ShortInterval == "" {
		c.Market.ShortInterval = "3m"
	}
	if c.Market.LongInterval == "" {
		c.Market.LongInterval = "4h"
	}
	if c.Market.ShortLimit <= 0 {
		c.Market.ShortLimit = 50
	}
	if c.Market.LongLimit <= 0 {
		c.Market.LongLimit = 60
	}
	if c.Ledger.Dir == "" {
		c.Ledger.Dir = "data/decisions"
	}
	if c.Ledger.RetentionDays <= 0 {
		c.Ledger.RetentionDays = 30
	}
	if c.Ledger.CleanupInterval == "" {
		c.Ledger.CleanupInterval = "6h"
	}
	if c.Analysis.LookbackCycles <= 0 {
		c.Analysis.LookbackCycles = 50
	}
}

func validate(c *Config) error {
	if _, err := ParseInterval(c.Market.ShortInterval); err != nil {
		return fmt.Errorf("market.short_interval: %w", err)
	}
	if _, err := ParseInterval(c.Market.LongInterval); err != nil {
		return fmt.Errorf("market.long_interval: %w", err)
	}
	if _, err := ParseInterval(c.Ledger.CleanupInterval); err != nil {
		return fmt.Errorf("ledger.cleanup_interval: %w", err)
	}
	if c.Market.ProxyEnabled && strings.TrimSpace(c.Market.ProxyURL) == "" {
		return fmt.Errorf("market.proxy_url is required when proxy is enabled")
	}
	return nil
}
