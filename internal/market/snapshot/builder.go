package snapshot

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tidemark/internal/market"
	"tidemark/internal/market/indicator"
	symbolpkg "tidemark/internal/pkg/symbol"
)

// ErrInsufficientData 表示必需序列缺少可用历史（例如短周期现价为 0）。
var ErrInsufficientData = errors.New("insufficient market data")

// tailWindow 限定 intraday/longer-term 序列只回看最后 10 根 K 线。
const tailWindow = 10

// Config 控制快照构建使用的周期与数量。零值字段由 withDefaults 补齐。
type Config struct {
	QuoteAsset    string
	ShortInterval string
	LongInterval  string
	ShortLimit    int
	LongLimit     int
}

func (c Config) withDefaults() Config {
	if c.QuoteAsset == "" {
		c.QuoteAsset = "USDT"
	}
	if c.ShortInterval == "" {
		c.ShortInterval = "3m"
	}
	if c.LongInterval == "" {
		c.LongInterval = "4h"
	}
	if c.ShortLimit <= 0 {
		c.ShortLimit = 50
	}
	if c.LongLimit <= 0 {
		c.LongLimit = 60
	}
	return c
}

// Builder 并发拉取四路独立序列并组装 Snapshot。
type Builder struct {
	source market.Source
	cfg    Config
}

func NewBuilder(source market.Source, cfg Config) *Builder {
	return &Builder{source: source, cfg: cfg.withDefaults()}
}

// Build 为单个 symbol 构建市场快照。四路拉取全部完成后才继续；
// 必需序列（两路 K 线）任一硬失败则整体失败，可选序列上游非成功
// 状态降级为缺失。
func (b *Builder) Build(ctx context.Context, rawSymbol string) (*Snapshot, error) {
	sym := symbolpkg.Normalize(rawSymbol, b.cfg.QuoteAsset)
	if sym == "" {
		return nil, fmt.Errorf("invalid symbol %q", rawSymbol)
	}

	var (
		shortCandles []market.Candle
		longCandles  []market.Candle
		openInterest *OpenInterest
		fundingRate  *float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		candles, err := b.source.FetchHistory(gctx, sym, b.cfg.ShortInterval, b.cfg.ShortLimit)
		if err != nil {
			return fmt.Errorf("fetch %s %s candles: %w", sym, b.cfg.ShortInterval, err)
		}
		shortCandles = candles
		return nil
	})
	g.Go(func() error {
		candles, err := b.source.FetchHistory(gctx, sym, b.cfg.LongInterval, b.cfg.LongLimit)
		if err != nil {
			return fmt.Errorf("fetch %s %s candles: %w", sym, b.cfg.LongInterval, err)
		}
		longCandles = candles
		return nil
	})
	g.Go(func() error {
		latest, err := b.source.OpenInterest(gctx, sym)
		if errors.Is(err, market.ErrUnavailable) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch %s open interest: %w", sym, err)
		}
		openInterest = &OpenInterest{Latest: latest, Average: latest * 0.999}
		return nil
	})
	g.Go(func() error {
		rate, err := b.source.FundingRate(gctx, sym)
		if errors.Is(err, market.ErrUnavailable) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch %s funding rate: %w", sym, err)
		}
		fundingRate = &rate
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var currentPrice float64
	if len(shortCandles) > 0 {
		currentPrice = shortCandles[len(shortCandles)-1].Close
	}
	if currentPrice == 0 {
		return nil, fmt.Errorf("%w: no current price for %s from %s candles", ErrInsufficientData, sym, b.cfg.ShortInterval)
	}

	snap := &Snapshot{
		Symbol:        sym,
		CurrentPrice:  currentPrice,
		PriceChange1h: priceChangePct(shortCandles, currentPrice, 21),
		PriceChange4h: priceChangePct(longCandles, currentPrice, 2),
		CurrentEMA20:  indicator.EMA(shortCandles, 20),
		CurrentMACD:   indicator.MACD(shortCandles),
		CurrentRSI7:   indicator.RSI(shortCandles, 7),
		OpenInterest:  openInterest,
		FundingRate:   fundingRate,
		Intraday:      buildIntraday(shortCandles),
		LongerTerm:    buildLongerTerm(longCandles),
	}
	return snap, nil
}

// priceChangePct 以 offset 根之前的收盘价为基准计算涨跌百分比。
// 历史不足或基准价非正时返回 0。
func priceChangePct(candles []market.Candle, currentPrice float64, offset int) float64 {
	if len(candles) < offset {
		return 0
	}
	ref := candles[len(candles)-offset].Close
	if ref <= 0 {
		return 0
	}
	return (currentPrice - ref) / ref * 100
}

// buildIntraday 对最后 tailWindow 根短周期 K 线的每个增长前缀重算指标。
func buildIntraday(candles []market.Candle) *IntradaySeries {
	if len(candles) == 0 {
		return nil
	}
	series := &IntradaySeries{}
	start := len(candles) - tailWindow
	if start < 0 {
		start = 0
	}
	for i := start; i < len(candles); i++ {
		prefix := candles[:i+1]
		series.MidPrices = append(series.MidPrices, prefix[len(prefix)-1].Close)
		if len(prefix) >= 20 {
			series.EMA20Values = append(series.EMA20Values, indicator.EMA(prefix, 20))
		}
		if len(prefix) >= 26 {
			series.MACDValues = append(series.MACDValues, indicator.MACD(prefix))
		}
		if len(prefix) > 7 {
			series.RSI7Values = append(series.RSI7Values, indicator.RSI(prefix, 7))
		}
		if len(prefix) > 14 {
			series.RSI14Values = append(series.RSI14Values, indicator.RSI(prefix, 14))
		}
	}
	return series
}

func buildLongerTerm(candles []market.Candle) *LongerTermContext {
	if len(candles) == 0 {
		return nil
	}
	ltc := &LongerTermContext{
		EMA20:         indicator.EMA(candles, 20),
		EMA50:         indicator.EMA(candles, 50),
		ATR3:          indicator.ATR(candles, 3),
		ATR14:         indicator.ATR(candles, 14),
		CurrentVolume: candles[len(candles)-1].Volume,
	}
	var volumeSum float64
	for _, c := range candles {
		volumeSum += c.Volume
	}
	ltc.AverageVolume = volumeSum / float64(len(candles))

	start := len(candles) - tailWindow
	if start < 0 {
		start = 0
	}
	for i := start; i < len(candles); i++ {
		prefix := candles[:i+1]
		if len(prefix) >= 26 {
			ltc.MACDValues = append(ltc.MACDValues, indicator.MACD(prefix))
		}
		if len(prefix) > 14 {
			ltc.RSI14Values = append(ltc.RSI14Values, indicator.RSI(prefix, 14))
		}
	}
	return ltc
}
