package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// ErrInvalidRecord 表示记录未通过写入前校验。
var ErrInvalidRecord = fmt.Errorf("invalid decision record")

// actionsSchema 约束结构化动作列表，Append 时强制执行。
const actionsSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["action", "symbol"],
    "properties": {
      "action": {"enum": ["open_long", "open_short", "close_long", "close_short"]},
      "symbol": {"type": "string", "minLength": 1},
      "quantity": {"type": "number", "minimum": 0},
      "leverage": {"type": "integer", "minimum": 0},
      "price": {"type": "number", "minimum": 0}
    }
  }
}`

var actionsSchema = mustCompileActionsSchema()

func mustCompileActionsSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("actions.json", strings.NewReader(actionsSchemaJSON)); err != nil {
		panic(fmt.Sprintf("ledger: add actions schema: %v", err))
	}
	schema, err := compiler.Compile("actions.json")
	if err != nil {
		panic(fmt.Sprintf("ledger: compile actions schema: %v", err))
	}
	return schema
}

func validateActions(actions []DecisionAction) error {
	if len(actions) == 0 {
		return nil
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("%w: 序列化动作失败: %v", ErrInvalidRecord, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := actionsSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// ValidateDecisionJSON 对记录携带的原始决策 JSON 做宽松校验：
// 允许为空；非空时必须是合法 JSON，数组元素的 action 必须可识别。
func ValidateDecisionJSON(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !gjson.Valid(raw) {
		return fmt.Errorf("%w: decision_json 格式无效", ErrInvalidRecord)
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		// 对象形态的决策输出照单全收，只有数组才逐条检查。
		return nil
	}
	var schemaErr error
	idx := 0
	parsed.ForEach(func(_, value gjson.Result) bool {
		idx++
		action := strings.TrimSpace(value.Get("action").String())
		if action == "" {
			return true
		}
		if _, ok := ParseActionKind(action); !ok {
			schemaErr = fmt.Errorf("%w: 决策#%d 非法 action: %s", ErrInvalidRecord, idx, action)
			return false
		}
		return true
	})
	return schemaErr
}
