package perf

import "tidemark/internal/ledger"

// positionKey 以 (symbol, side) 为键，同币种多空互不干扰。
type positionKey struct {
	Symbol string
	Side   ledger.Side
}

type openPosition struct {
	price    float64
	openTime int64
	quantity float64
	leverage int
}

// Reconstructor 按时间顺序消费成功的决策动作，维护未平仓状态，
// 将每个平仓与对应的开仓配对成 TradeOutcome。
// 状态归一次回放独占，不做并发保护。
type Reconstructor struct {
	open map[positionKey]openPosition
}

func NewReconstructor() *Reconstructor {
	return &Reconstructor{open: make(map[positionKey]openPosition)}
}

// OpenCount 返回当前未平仓键的数量。
func (r *Reconstructor) OpenCount() int { return len(r.open) }

// Prime 回放一段更早的历史，只保留由此形成的未平仓状态，丢弃产生的
// 任何成交结果。用于消除分析窗口边界处开仓在窗口外的截断伪影。
func (r *Reconstructor) Prime(records []ledger.DecisionRecord) {
	for i := range records {
		for _, act := range records[i].SuccessfulActions() {
			r.apply(act)
		}
	}
}

// Replay 回放记录序列并返回按发生顺序排列的成交结果。
func (r *Reconstructor) Replay(records []ledger.DecisionRecord) []TradeOutcome {
	var outcomes []TradeOutcome
	for i := range records {
		for _, act := range records[i].SuccessfulActions() {
			if outcome, ok := r.apply(act); ok {
				outcomes = append(outcomes, outcome)
			}
		}
	}
	return outcomes
}

// apply 处理单个动作。开仓无条件覆盖同键的旧状态（账本以交易所为准，
// 后写为胜）；无配对开仓的平仓静默忽略，属窗口截断伪影而非错误。
func (r *Reconstructor) apply(act ledger.DecisionAction) (TradeOutcome, bool) {
	side, ok := act.Action.Side()
	if !ok {
		return TradeOutcome{}, false
	}
	key := positionKey{Symbol: act.Symbol, Side: side}

	if act.Action.IsOpen() {
		r.open[key] = openPosition{
			price:    act.Price,
			openTime: act.Timestamp,
			quantity: act.Quantity,
			leverage: act.Leverage,
		}
		return TradeOutcome{}, false
	}

	pos, exists := r.open[key]
	if !exists {
		return TradeOutcome{}, false
	}
	delete(r.open, key)

	var pnl float64
	if side == ledger.SideLong {
		pnl = pos.quantity * (act.Price - pos.price)
	} else {
		pnl = pos.quantity * (pos.price - act.Price)
	}
	positionValue := pos.quantity * pos.price
	var marginUsed, pnlPct float64
	if pos.leverage > 0 {
		marginUsed = positionValue / float64(pos.leverage)
	}
	if marginUsed > 0 {
		pnlPct = pnl / marginUsed * 100
	}

	return TradeOutcome{
		Symbol:        act.Symbol,
		Side:          side,
		Quantity:      pos.quantity,
		Leverage:      pos.leverage,
		OpenPrice:     pos.price,
		ClosePrice:    act.Price,
		OpenTime:      pos.openTime,
		CloseTime:     act.Timestamp,
		PositionValue: positionValue,
		MarginUsed:    marginUsed,
		PnL:           pnl,
		PnLPct:        pnlPct,
		Duration:      formatDuration(pos.openTime, act.Timestamp),
	}, true
}
