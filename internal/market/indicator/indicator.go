// Package indicator 提供基于收盘 K 线序列的常用技术指标。
//
// 全部函数为纯函数：无共享状态、无 I/O、同输入必同输出。历史长度不足时
// 一律返回 0.0 哨兵值而非错误，调用方需按周期门槛自行区分
// "数据不足" 与 "指标恰好为 0"。
package indicator

import (
	"math"

	"tidemark/internal/market"
)

// EMA 计算 period 周期指数移动平均。len(candles) < period 时返回 0。
// 种子取前 period 根收盘价的简单平均，其后按 2/(period+1) 权重递推。
func EMA(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}
	var sum float64
	for _, c := range candles[:period] {
		sum += c.Close
	}
	ema := sum / float64(period)
	multiplier := 2.0 / (float64(period) + 1.0)
	for _, c := range candles[period:] {
		ema = (c.Close-ema)*multiplier + ema
	}
	return ema
}

// MACD 返回 EMA12 与 EMA26 的差值。len(candles) < 26 时返回 0。
func MACD(candles []market.Candle) float64 {
	if len(candles) < 26 {
		return 0
	}
	return EMA(candles, 12) - EMA(candles, 26)
}

// RSI 计算 Wilder 平滑的相对强弱指数，值域 [0,100]。
// len(candles) <= period 时返回 0；窗口内平均跌幅为 0 时返回 100。
func RSI(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) <= period {
		return 0
	}
	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ATR 计算 Wilder 平滑的平均真实波幅。len(candles) <= period 时返回 0。
// 首根 K 线没有前收盘价，真实波幅记为 0。
func ATR(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) <= period {
		return 0
	}
	trs := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		tr := high - low
		if v := math.Abs(high - prevClose); v > tr {
			tr = v
		}
		if v := math.Abs(low - prevClose); v > tr {
			tr = v
		}
		trs[i] = tr
	}

	var sum float64
	for _, tr := range trs[1 : period+1] {
		sum += tr
	}
	atr := sum / float64(period)

	for _, tr := range trs[period+1:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr
}
