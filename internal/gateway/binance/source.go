package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"tidemark/internal/market"
	"tidemark/internal/pkg/convert"
)

const maxHistoryLimit = 1500

// Source 基于 go-binance SDK 实现 market.Source。
type Source struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Source{
		cfg:    final,
		client: client,
	}, nil
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	svc := s.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		c := market.Candle{
			OpenTime:            kl.OpenTime,
			CloseTime:           kl.CloseTime,
			Open:                convert.ToFloat64(kl.Open),
			High:                convert.ToFloat64(kl.High),
			Low:                 convert.ToFloat64(kl.Low),
			Close:               convert.ToFloat64(kl.Close),
			Volume:              convert.ToFloat64(kl.Volume),
			QuoteVolume:         convert.ToFloat64(kl.QuoteAssetVolume),
			Trades:              kl.TradeNum,
			TakerBuyBaseVolume:  convert.ToFloat64(kl.TakerBuyBaseAssetVolume),
			TakerBuyQuoteVolume: convert.ToFloat64(kl.TakerBuyQuoteAssetVolume),
		}
		out = append(out, c)
	}
	return out, nil
}

// OpenInterest 获取最新持仓量。上游拒绝该 symbol（例如现货对）时返回
// market.ErrUnavailable，网络/解析失败原样上抛。
func (s *Source) OpenInterest(ctx context.Context, symbol string) (float64, error) {
	if s == nil || s.client == nil {
		return 0, fmt.Errorf("binance source not initialized")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	res, err := s.client.NewGetOpenInterestService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, mapOptionalErr(symbol, err)
	}
	if res == nil {
		return 0, fmt.Errorf("%w: empty open interest response for %s", market.ErrUnavailable, symbol)
	}
	return convert.ToFloat64(res.OpenInterest), nil
}

// FundingRate 获取最新资金费率（例如 0.0001 即 0.01%）。
func (s *Source) FundingRate(ctx context.Context, symbol string) (float64, error) {
	if s == nil || s.client == nil {
		return 0, fmt.Errorf("binance source not initialized")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	res, err := s.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, mapOptionalErr(symbol, err)
	}
	for _, entry := range res {
		if entry == nil {
			continue
		}
		if strings.EqualFold(entry.Symbol, symbol) {
			return convert.ToFloat64(entry.LastFundingRate), nil
		}
	}
	return 0, fmt.Errorf("%w: funding rate not available for %s", market.ErrUnavailable, symbol)
}

func (s *Source) Close() error {
	return nil
}

// mapOptionalErr 将交易所层面的拒绝（非成功状态码）转成 ErrUnavailable，
// 其余错误视为传输失败。
func mapOptionalErr(symbol string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s (%d %s)", market.ErrUnavailable, symbol, apiErr.Code, apiErr.Message)
	}
	return err
}
