package market

// Candle 对应交易所返回的一根 K 线，时间为毫秒时间戳，序列约定 oldest → latest。
type Candle struct {
	OpenTime            int64   `json:"open_time"`
	CloseTime           int64   `json:"close_time"`
	Open                float64 `json:"open"`
	High                float64 `json:"high"`
	Low                 float64 `json:"low"`
	Close               float64 `json:"close"`
	Volume              float64 `json:"volume"`
	QuoteVolume         float64 `json:"quote_volume"`
	Trades              int64   `json:"trades"`
	TakerBuyBaseVolume  float64 `json:"taker_buy_base_volume"`
	TakerBuyQuoteVolume float64 `json:"taker_buy_quote_volume"`
}
