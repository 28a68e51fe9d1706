package snapshot

// Snapshot 是一次快照构建的完整输出：现价、短线指标、可选的永续数据
// 以及两个时间尺度的指标序列。构建失败时不产出部分快照。
type Snapshot struct {
	Symbol        string             `json:"symbol"`
	CurrentPrice  float64            `json:"current_price"`
	PriceChange1h float64            `json:"price_change_1h"`
	PriceChange4h float64            `json:"price_change_4h"`
	CurrentEMA20  float64            `json:"current_ema20"`
	CurrentMACD   float64            `json:"current_macd"`
	CurrentRSI7   float64            `json:"current_rsi7"`
	OpenInterest  *OpenInterest      `json:"open_interest,omitempty"`
	FundingRate   *float64           `json:"funding_rate,omitempty"`
	Intraday      *IntradaySeries    `json:"intraday_series,omitempty"`
	LongerTerm    *LongerTermContext `json:"longer_term_context,omitempty"`
}

// OpenInterest 携带最新持仓量与均值。均值沿用上游的 latest×0.999 近似，
// 不是真实移动平均。
type OpenInterest struct {
	Latest  float64 `json:"latest"`
	Average float64 `json:"average"`
}

// IntradaySeries 覆盖短周期 K 线最后 10 根的并行指标序列。
// 每个子序列只在对应指标历史足够时才开始填充。
type IntradaySeries struct {
	MidPrices   []float64 `json:"midPrices"`
	EMA20Values []float64 `json:"ema20Values"`
	MACDValues  []float64 `json:"macdValues"`
	RSI7Values  []float64 `json:"rsi7Values"`
	RSI14Values []float64 `json:"rsi14Values"`
}

// LongerTermContext 覆盖长周期 K 线的整段指标与末 10 根的 MACD/RSI14 序列。
type LongerTermContext struct {
	EMA20         float64   `json:"ema20"`
	EMA50         float64   `json:"ema50"`
	ATR3          float64   `json:"atr3"`
	ATR14         float64   `json:"atr14"`
	CurrentVolume float64   `json:"currentVolume"`
	AverageVolume float64   `json:"averageVolume"`
	MACDValues    []float64 `json:"macdValues"`
	RSI14Values   []float64 `json:"rsi14Values"`
}
