package symbol

import (
	"strings"
)

var knownQuotes = []string{"USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH", "BNB"}

type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) Exchange() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// Parse splits a raw symbol into base/quote. Accepts "btc", "BTC/USDT",
// "BTCUSDT" and the exchange ":SETTLE" suffix form.
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}

	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
		}
	}

	for _, quote := range knownQuotes {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}

	return Symbol{Base: s}
}

// Normalize uppercases a symbol and appends the quote asset when missing:
// "btc" -> "BTCUSDT", "ethusdt" -> "ETHUSDT".
func Normalize(s, quoteAsset string) string {
	sym := Parse(s)
	if sym.Base == "" {
		return ""
	}
	if sym.Quote == "" {
		sym.Quote = strings.ToUpper(strings.TrimSpace(quoteAsset))
	}
	return sym.Exchange()
}

func NormalizeList(symbols []string, quoteAsset string) []string {
	if len(symbols) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm := Normalize(s, quoteAsset)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}
