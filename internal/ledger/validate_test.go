package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionKindSide(t *testing.T) {
	cases := []struct {
		kind ActionKind
		side Side
	}{
		{ActionOpenLong, SideLong},
		{ActionCloseLong, SideLong},
		{ActionOpenShort, SideShort},
		{ActionCloseShort, SideShort},
	}
	for _, tc := range cases {
		side, ok := tc.kind.Side()
		require.True(t, ok, tc.kind)
		assert.Equal(t, tc.side, side)
	}
	_, ok := ActionKind("hold").Side()
	assert.False(t, ok)
}

func TestParseActionKind(t *testing.T) {
	k, ok := ParseActionKind(" Open_Long ")
	require.True(t, ok)
	assert.Equal(t, ActionOpenLong, k)

	_, ok = ParseActionKind("liquidate")
	assert.False(t, ok)
}

func TestAppendRejectsUnknownAction(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("BTCUSDT")
	rec.Decisions[0].Action = "hold"

	err := store.Append(rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestAppendRejectsEmptySymbol(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("BTCUSDT")
	rec.Decisions[0].Symbol = ""

	assert.ErrorIs(t, store.Append(rec), ErrInvalidRecord)
}

func TestValidateDecisionJSON(t *testing.T) {
	assert.NoError(t, ValidateDecisionJSON(""))
	assert.NoError(t, ValidateDecisionJSON(`{"note":"object payloads pass"}`))
	assert.NoError(t, ValidateDecisionJSON(`[{"action":"open_long","symbol":"BTCUSDT"}]`))
	assert.NoError(t, ValidateDecisionJSON(`[{"symbol":"BTCUSDT"}]`))

	assert.ErrorIs(t, ValidateDecisionJSON(`[{"action":"buy"}]`), ErrInvalidRecord)
	assert.ErrorIs(t, ValidateDecisionJSON(`{broken`), ErrInvalidRecord)
}

func TestAppendRejectsMalformedDecisionJSON(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("BTCUSDT")
	rec.DecisionJSON = `[{"action":"nuke"}]`

	assert.ErrorIs(t, store.Append(rec), ErrInvalidRecord)
}

func TestSuccessfulActionsFilter(t *testing.T) {
	rec := sampleRecord("BTCUSDT")
	rec.Decisions = append(rec.Decisions, DecisionAction{
		Action: ActionCloseLong, Symbol: "BTCUSDT", Success: false, Error: "timeout",
	})

	acts := rec.SuccessfulActions()
	require.Len(t, acts, 1)
	assert.Equal(t, ActionOpenLong, acts[0].Action)
}
