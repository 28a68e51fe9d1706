package perf

import (
	"math"
	"sort"
)

// SymbolPerformance 是单个币种的聚合绩效。
type SymbolPerformance struct {
	Symbol        string  `json:"symbol"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	AvgPnL        float64 `json:"avg_pnl"`
}

// PerformanceAnalysis 是一个分析窗口的整体绩效报告。
type PerformanceAnalysis struct {
	TotalTrades   int                          `json:"total_trades"`
	WinningTrades int                          `json:"winning_trades"`
	LosingTrades  int                          `json:"losing_trades"`
	WinRate       float64                      `json:"win_rate"`
	AvgWin        float64                      `json:"avg_win"`
	AvgLoss       float64                      `json:"avg_loss"`
	ProfitFactor  float64                      `json:"profit_factor"`
	SharpeRatio   float64                      `json:"sharpe_ratio"`
	RecentTrades  []TradeOutcome               `json:"recent_trades"`
	SymbolStats   map[string]SymbolPerformance `json:"symbol_stats"`
	BestSymbol    string                       `json:"best_symbol,omitempty"`
	WorstSymbol   string                       `json:"worst_symbol,omitempty"`
}

// Analyze 把成交结果聚合成绩效报告。
// 盈亏分类：pnl > 0 记为盈利，其余（含 0）记为亏损。
// profit factor 在总亏损为 0 时取总盈利本身，保证结果可 JSON 序列化；
// sharpe 用 pnl_pct 的总体标准差，样本数 <2 或标准差为 0 时取 0。
func Analyze(outcomes []TradeOutcome) PerformanceAnalysis {
	analysis := PerformanceAnalysis{
		RecentTrades: outcomes,
		SymbolStats:  make(map[string]SymbolPerformance),
	}
	if len(outcomes) == 0 {
		return analysis
	}

	var grossWin, grossLoss, sumWin, sumLoss float64
	pnlPcts := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		analysis.TotalTrades++
		if o.PnL > 0 {
			analysis.WinningTrades++
			grossWin += o.PnL
			sumWin += o.PnL
		} else {
			analysis.LosingTrades++
			grossLoss += math.Abs(o.PnL)
			sumLoss += o.PnL
		}
		pnlPcts = append(pnlPcts, o.PnLPct)

		stat := analysis.SymbolStats[o.Symbol]
		stat.Symbol = o.Symbol
		stat.TotalTrades++
		if o.PnL > 0 {
			stat.WinningTrades++
		} else {
			stat.LosingTrades++
		}
		stat.TotalPnL += o.PnL
		analysis.SymbolStats[o.Symbol] = stat
	}

	analysis.WinRate = float64(analysis.WinningTrades) / float64(analysis.TotalTrades)
	if analysis.WinningTrades > 0 {
		analysis.AvgWin = sumWin / float64(analysis.WinningTrades)
	}
	if analysis.LosingTrades > 0 {
		analysis.AvgLoss = sumLoss / float64(analysis.LosingTrades)
	}
	if grossLoss > 0 {
		analysis.ProfitFactor = grossWin / grossLoss
	} else {
		analysis.ProfitFactor = grossWin
	}
	analysis.SharpeRatio = sharpe(pnlPcts)

	names := make([]string, 0, len(analysis.SymbolStats))
	for name, stat := range analysis.SymbolStats {
		stat.WinRate = float64(stat.WinningTrades) / float64(stat.TotalTrades)
		stat.AvgPnL = stat.TotalPnL / float64(stat.TotalTrades)
		analysis.SymbolStats[name] = stat
		names = append(names, name)
	}
	// 名字升序遍历 + 严格比较，并列时取字典序靠前的币种。
	sort.Strings(names)
	bestPnL := math.Inf(-1)
	worstPnL := math.Inf(1)
	for _, name := range names {
		pnl := analysis.SymbolStats[name].TotalPnL
		if pnl > bestPnL {
			bestPnL = pnl
			analysis.BestSymbol = name
		}
		if pnl < worstPnL {
			worstPnL = pnl
			analysis.WorstSymbol = name
		}
	}
	return analysis
}

// sharpe 计算 mean/popStdev，不做无风险利率扣减。
func sharpe(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return 0
	}
	return mean / stdev
}
