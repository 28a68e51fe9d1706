package config

import "time"

// Config 是 Tidemark 的主配置载体，进程启动时构造一次并向下传递。
type Config struct {
	App      AppConfig      `toml:"app"`
	Market   MarketConfig   `toml:"market"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Analysis AnalysisConfig `toml:"analysis"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// MarketConfig 描述行情数据源与快照采样参数。
type MarketConfig struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ProxyEnabled   bool   `toml:"proxy_enabled"`
	ProxyURL       string `toml:"proxy_url"`
	QuoteAsset     string `toml:"quote_asset"`
	ShortInterval  string `toml:"short_interval"`
	LongInterval   string `toml:"long_interval"`
	ShortLimit     int    `toml:"short_limit"`
	LongLimit      int    `toml:"long_limit"`
}

func (m MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// LedgerConfig 描述决策账本目录与过期清理策略。
type LedgerConfig struct {
	Dir             string `toml:"dir"`
	RetentionDays   int    `toml:"retention_days"`
	CleanupInterval string `toml:"cleanup_interval"`
}

func (l LedgerConfig) Retention() time.Duration {
	return time.Duration(l.RetentionDays) * 24 * time.Hour
}

// CleanupEvery 返回清理循环的周期；配置非法时由 validate 提前拦截。
func (l LedgerConfig) CleanupEvery() time.Duration {
	d, err := ParseInterval(l.CleanupInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

type AnalysisConfig struct {
	LookbackCycles int `toml:"lookback_cycles"`
}
