package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tidemark/internal/market"
	"tidemark/internal/market/indicator"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	args := m.Called(ctx, symbol, interval, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Candle), args.Error(1)
}

func (m *MockSource) OpenInterest(ctx context.Context, symbol string) (float64, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockSource) FundingRate(ctx context.Context, symbol string) (float64, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockSource) Close() error { return nil }

func makeCandles(n int, base float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		price := base + float64(i)
		out[i] = market.Candle{
			OpenTime:  int64(i) * 180_000,
			CloseTime: int64(i+1)*180_000 - 1,
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    10 + float64(i%5),
		}
	}
	return out
}

func TestBuildAssemblesSnapshot(t *testing.T) {
	src := new(MockSource)
	shortCandles := makeCandles(50, 100)
	longCandles := makeCandles(60, 1000)
	src.On("FetchHistory", mock.Anything, "BTCUSDT", "3m", 50).Return(shortCandles, nil)
	src.On("FetchHistory", mock.Anything, "BTCUSDT", "4h", 60).Return(longCandles, nil)
	src.On("OpenInterest", mock.Anything, "BTCUSDT").Return(5000.0, nil)
	src.On("FundingRate", mock.Anything, "BTCUSDT").Return(0.0001, nil)

	b := NewBuilder(src, Config{})
	snap, err := b.Build(context.Background(), "btc")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, 149.0, snap.CurrentPrice)
	assert.InDelta(t, indicator.EMA(shortCandles, 20), snap.CurrentEMA20, 1e-12)
	assert.InDelta(t, indicator.MACD(shortCandles), snap.CurrentMACD, 1e-12)
	assert.InDelta(t, indicator.RSI(shortCandles, 7), snap.CurrentRSI7, 1e-12)

	// 21 short candles back: close = 129; 2 long candles back: close = 1058
	assert.InDelta(t, (149.0-129.0)/129.0*100, snap.PriceChange1h, 1e-9)
	assert.InDelta(t, (149.0-1058.0)/1058.0*100, snap.PriceChange4h, 1e-9)

	require.NotNil(t, snap.OpenInterest)
	assert.Equal(t, 5000.0, snap.OpenInterest.Latest)
	assert.InDelta(t, 5000.0*0.999, snap.OpenInterest.Average, 1e-9)
	require.NotNil(t, snap.FundingRate)
	assert.Equal(t, 0.0001, *snap.FundingRate)

	require.NotNil(t, snap.Intraday)
	assert.Len(t, snap.Intraday.MidPrices, 10)
	assert.Len(t, snap.Intraday.EMA20Values, 10)
	assert.Len(t, snap.Intraday.RSI14Values, 10)
	require.NotNil(t, snap.LongerTerm)
	assert.Equal(t, longCandles[59].Volume, snap.LongerTerm.CurrentVolume)
	assert.Len(t, snap.LongerTerm.MACDValues, 10)
}

func TestBuildOptionalSeriesDegrade(t *testing.T) {
	src := new(MockSource)
	src.On("FetchHistory", mock.Anything, "DOGEUSDT", "3m", 50).Return(makeCandles(50, 10), nil)
	src.On("FetchHistory", mock.Anything, "DOGEUSDT", "4h", 60).Return(makeCandles(60, 10), nil)
	src.On("OpenInterest", mock.Anything, "DOGEUSDT").Return(0.0, market.ErrUnavailable)
	src.On("FundingRate", mock.Anything, "DOGEUSDT").Return(0.0, market.ErrUnavailable)

	b := NewBuilder(src, Config{})
	snap, err := b.Build(context.Background(), "DOGE")
	require.NoError(t, err)
	assert.Nil(t, snap.OpenInterest)
	assert.Nil(t, snap.FundingRate)
}

func TestBuildFailsOnRequiredSeries(t *testing.T) {
	src := new(MockSource)
	boom := errors.New("connection reset")
	src.On("FetchHistory", mock.Anything, "ETHUSDT", "3m", 50).Return(nil, boom)
	src.On("FetchHistory", mock.Anything, "ETHUSDT", "4h", 60).Return(makeCandles(60, 10), nil).Maybe()
	src.On("OpenInterest", mock.Anything, "ETHUSDT").Return(1.0, nil).Maybe()
	src.On("FundingRate", mock.Anything, "ETHUSDT").Return(0.1, nil).Maybe()

	b := NewBuilder(src, Config{})
	_, err := b.Build(context.Background(), "ETH")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBuildFailsOnHardOptionalError(t *testing.T) {
	src := new(MockSource)
	boom := errors.New("malformed payload")
	src.On("FetchHistory", mock.Anything, "ETHUSDT", "3m", 50).Return(makeCandles(50, 10), nil).Maybe()
	src.On("FetchHistory", mock.Anything, "ETHUSDT", "4h", 60).Return(makeCandles(60, 10), nil).Maybe()
	src.On("OpenInterest", mock.Anything, "ETHUSDT").Return(0.0, boom)
	src.On("FundingRate", mock.Anything, "ETHUSDT").Return(0.1, nil).Maybe()

	b := NewBuilder(src, Config{})
	_, err := b.Build(context.Background(), "ETH")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBuildRejectsZeroCurrentPrice(t *testing.T) {
	src := new(MockSource)
	zeroClose := makeCandles(50, 10)
	zeroClose[len(zeroClose)-1].Close = 0
	src.On("FetchHistory", mock.Anything, "BTCUSDT", "3m", 50).Return(zeroClose, nil)
	src.On("FetchHistory", mock.Anything, "BTCUSDT", "4h", 60).Return(makeCandles(60, 10), nil)
	src.On("OpenInterest", mock.Anything, "BTCUSDT").Return(1.0, nil)
	src.On("FundingRate", mock.Anything, "BTCUSDT").Return(0.1, nil)

	b := NewBuilder(src, Config{})
	_, err := b.Build(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBuildShortHistoryDefaultsChangesToZero(t *testing.T) {
	src := new(MockSource)
	src.On("FetchHistory", mock.Anything, "BTCUSDT", "3m", 50).Return(makeCandles(5, 10), nil)
	src.On("FetchHistory", mock.Anything, "BTCUSDT", "4h", 60).Return(makeCandles(1, 10), nil)
	src.On("OpenInterest", mock.Anything, "BTCUSDT").Return(0.0, market.ErrUnavailable)
	src.On("FundingRate", mock.Anything, "BTCUSDT").Return(0.0, market.ErrUnavailable)

	b := NewBuilder(src, Config{})
	snap, err := b.Build(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Zero(t, snap.PriceChange1h)
	assert.Zero(t, snap.PriceChange4h)
	assert.Zero(t, snap.CurrentEMA20, "fewer candles than the ema period")
	assert.Len(t, snap.Intraday.MidPrices, 5)
	assert.Empty(t, snap.Intraday.EMA20Values)
}
