package market

import (
	"context"
	"errors"
)

// ErrUnavailable 表示上游对该 symbol 返回了非成功状态（例如现货对没有永续数据）。
// 可选序列（持仓量/资金费率）遇到它时降级为"缺失"，不算失败。
var ErrUnavailable = errors.New("market data unavailable for symbol")

// Source 是快照构建器依赖的行情数据采集口。
type Source interface {
	// FetchHistory 拉取最近 limit 根已收盘 K 线，oldest → latest。
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	// OpenInterest 返回最新持仓量；无永续数据时返回 ErrUnavailable。
	OpenInterest(ctx context.Context, symbol string) (float64, error)

	// FundingRate 返回最新资金费率；无永续数据时返回 ErrUnavailable。
	FundingRate(ctx context.Context, symbol string) (float64, error)

	Close() error
}
