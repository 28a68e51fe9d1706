// Package ledger 负责决策记录的落盘与回读，每个决策周期一个 JSON 文件。
package ledger

import "strings"

// Side 表示仓位方向。
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ActionKind 是决策动作类型，取值固定为四种开平仓组合。
type ActionKind string

const (
	ActionOpenLong   ActionKind = "open_long"
	ActionOpenShort  ActionKind = "open_short"
	ActionCloseLong  ActionKind = "close_long"
	ActionCloseShort ActionKind = "close_short"
)

func (k ActionKind) IsOpen() bool {
	return k == ActionOpenLong || k == ActionOpenShort
}

func (k ActionKind) IsClose() bool {
	return k == ActionCloseLong || k == ActionCloseShort
}

// Side 返回动作对应的仓位方向；未知动作返回 false。
func (k ActionKind) Side() (Side, bool) {
	switch k {
	case ActionOpenLong, ActionCloseLong:
		return SideLong, true
	case ActionOpenShort, ActionCloseShort:
		return SideShort, true
	default:
		return "", false
	}
}

// ParseActionKind 解析动作字符串，大小写不敏感。
func ParseActionKind(s string) (ActionKind, bool) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case ActionOpenLong, ActionOpenShort, ActionCloseLong, ActionCloseShort:
		return k, true
	}
	return "", false
}

// DecisionAction 是一次已执行（或执行失败）的开平仓动作。
type DecisionAction struct {
	Action    ActionKind `json:"action"`
	Symbol    string     `json:"symbol"`
	Quantity  float64    `json:"quantity"`
	Leverage  int        `json:"leverage"`
	Price     float64    `json:"price"`
	OrderID   string     `json:"order_id,omitempty"`
	Timestamp int64      `json:"timestamp"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
}

// AccountSnapshot 记录决策时刻的账户状态。
type AccountSnapshot struct {
	TotalBalance     float64 `json:"total_balance"`
	AvailableBalance float64 `json:"available_balance"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	MarginUsed       float64 `json:"margin_used"`
	PositionCount    int     `json:"position_count"`
}

// PositionSnapshot 记录决策时刻的单个持仓。
type PositionSnapshot struct {
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	MarkPrice     float64 `json:"mark_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Leverage      int     `json:"leverage"`
}

// DecisionRecord 是一个决策周期的完整留痕。cycle_number / timestamp /
// trace_id 在 Append 时由 Store 赋值，写入后不再修改。
type DecisionRecord struct {
	CycleNumber    int64              `json:"cycle_number"`
	Timestamp      int64              `json:"timestamp"`
	TraceID        string             `json:"trace_id"`
	SystemPrompt   string             `json:"system_prompt,omitempty"`
	InputPrompt    string             `json:"input_prompt,omitempty"`
	CoTTrace       string             `json:"cot_trace,omitempty"`
	DecisionJSON   string             `json:"decision_json,omitempty"`
	AccountState   AccountSnapshot    `json:"account_state"`
	Positions      []PositionSnapshot `json:"positions,omitempty"`
	CandidateCoins []string           `json:"candidate_coins,omitempty"`
	Decisions      []DecisionAction   `json:"decisions"`
	ExecutionLog   []string           `json:"execution_log,omitempty"`
	Success        bool               `json:"success"`
	ErrorMessage   string             `json:"error_message,omitempty"`
}

// SuccessfulActions 返回 success=true 的动作，仓位重建只消费这些。
func (r *DecisionRecord) SuccessfulActions() []DecisionAction {
	if r == nil {
		return nil
	}
	out := make([]DecisionAction, 0, len(r.Decisions))
	for _, act := range r.Decisions {
		if act.Success {
			out = append(out, act)
		}
	}
	return out
}
