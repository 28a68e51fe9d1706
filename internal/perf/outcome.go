// Package perf 从决策账本回放出已实现的交易结果并计算绩效统计。
package perf

import (
	"time"

	"tidemark/internal/ledger"
)

// TradeOutcome 是一次配对成功的开平仓所实现的结果。
type TradeOutcome struct {
	Symbol        string      `json:"symbol"`
	Side          ledger.Side `json:"side"`
	Quantity      float64     `json:"quantity"`
	Leverage      int         `json:"leverage"`
	OpenPrice     float64     `json:"open_price"`
	ClosePrice    float64     `json:"close_price"`
	OpenTime      int64       `json:"open_time"`
	CloseTime     int64       `json:"close_time"`
	PositionValue float64     `json:"position_value"`
	MarginUsed    float64     `json:"margin_used"`
	PnL           float64     `json:"pnl"`
	PnLPct        float64     `json:"pnl_pct"`
	Duration      string      `json:"duration"`
	WasStopLoss   bool        `json:"was_stop_loss"`
}

func formatDuration(openMillis, closeMillis int64) string {
	if closeMillis <= openMillis {
		return "0s"
	}
	d := time.Duration(closeMillis-openMillis) * time.Millisecond
	return d.Round(time.Second).String()
}
