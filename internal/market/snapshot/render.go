package snapshot

import (
	"fmt"
	"strings"
)

// Render 将快照格式化为固定布局的可读报告。没有数据的区块整体省略。
func Render(s *Snapshot) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b,
		"current_price = %.2f, current_ema20 = %.3f, current_macd = %.3f, current_rsi (7 period) = %.3f\n\n",
		s.CurrentPrice, s.CurrentEMA20, s.CurrentMACD, s.CurrentRSI7)

	if s.OpenInterest != nil || s.FundingRate != nil {
		fmt.Fprintf(&b,
			"In addition, here is the latest %s open interest and funding rate for perps:\n\n",
			s.Symbol)
		if s.OpenInterest != nil {
			fmt.Fprintf(&b, "Open Interest: Latest: %.2f Average: %.2f\n\n",
				s.OpenInterest.Latest, s.OpenInterest.Average)
		}
		if s.FundingRate != nil {
			fmt.Fprintf(&b, "Funding Rate: %.2e\n\n", *s.FundingRate)
		}
	}

	if in := s.Intraday; in != nil {
		b.WriteString("Intraday series (3‑minute intervals, oldest → latest):\n\n")
		fmt.Fprintf(&b, "Mid prices: %s\n\n", formatFloatSlice(in.MidPrices))
		fmt.Fprintf(&b, "EMA indicators (20‑period): %s\n\n", formatFloatSlice(in.EMA20Values))
		fmt.Fprintf(&b, "MACD indicators: %s\n\n", formatFloatSlice(in.MACDValues))
		fmt.Fprintf(&b, "RSI indicators (7‑Period): %s\n\n", formatFloatSlice(in.RSI7Values))
		fmt.Fprintf(&b, "RSI indicators (14‑Period): %s\n\n", formatFloatSlice(in.RSI14Values))
	}

	if ltc := s.LongerTerm; ltc != nil {
		b.WriteString("Longer‑term context (4‑hour timeframe):\n\n")
		fmt.Fprintf(&b, "20‑Period EMA: %.3f vs. 50‑Period EMA: %.3f\n\n", ltc.EMA20, ltc.EMA50)
		fmt.Fprintf(&b, "3‑Period ATR: %.3f vs. 14‑Period ATR: %.3f\n\n", ltc.ATR3, ltc.ATR14)
		fmt.Fprintf(&b, "Current Volume: %.3f vs. Average Volume: %.3f\n\n", ltc.CurrentVolume, ltc.AverageVolume)
		fmt.Fprintf(&b, "MACD indicators: %s\n\n", formatFloatSlice(ltc.MACDValues))
		fmt.Fprintf(&b, "RSI indicators (14‑Period): %s\n\n", formatFloatSlice(ltc.RSI14Values))
	}

	return b.String()
}

// formatFloatSlice renders values as "[1.234, 5.678]".
func formatFloatSlice(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.3f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
