package perf

import (
	"fmt"

	"tidemark/internal/ledger"
	"tidemark/internal/logger"
)

// primingFactor 决定预热窗口相对分析窗口的倍数。
const primingFactor = 3

// RecordReader 是绩效分析对账本的最小依赖。
type RecordReader interface {
	ReadRecent(n int) ([]ledger.DecisionRecord, error)
}

// AnalyzeLedger 读取最近 lookback 个周期做绩效分析。先用更早的
// 2×lookback 周期预热仓位状态（只保留未平仓、丢弃结果），再回放
// 分析窗口本身，减少窗口边界截断造成的孤儿平仓。
func AnalyzeLedger(reader RecordReader, lookback int) (*PerformanceAnalysis, error) {
	if lookback <= 0 {
		return nil, fmt.Errorf("lookback must be positive, got %d", lookback)
	}
	wider, err := reader.ReadRecent(lookback * primingFactor)
	if err != nil {
		return nil, fmt.Errorf("read decision records: %w", err)
	}

	window := wider
	var prefix []ledger.DecisionRecord
	if len(wider) > lookback {
		prefix = wider[:len(wider)-lookback]
		window = wider[len(wider)-lookback:]
	}

	r := NewReconstructor()
	r.Prime(prefix)
	outcomes := r.Replay(window)
	logger.Debugf("绩效回放完成: 预热 %d 周期, 窗口 %d 周期, 成交 %d 笔, 未平仓 %d",
		len(prefix), len(window), len(outcomes), r.OpenCount())

	analysis := Analyze(outcomes)
	return &analysis, nil
}
