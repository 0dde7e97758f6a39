package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/soralvi/internal/ir"
)

// marshalInitial converts the pristine array to canonical JSON TEXT for storage.
func marshalInitial(values []int) (string, error) {
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal initial: %w", err)
	}
	return string(data), nil
}

// unmarshalInitial parses the stored pristine array.
func unmarshalInitial(data string) ([]int, error) {
	var values []int
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal initial: %w", err)
	}
	if values == nil {
		values = []int{}
	}
	return values, nil
}

// actionRow is the column form of one action. Columns that do not apply to
// the action's kind are NULL.
type actionRow struct {
	kind      string
	keyIndex  sql.NullInt64
	position  sql.NullInt64
	positionA sql.NullInt64
	positionB sql.NullInt64
}

func validInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

// toActionRow flattens an action into its columns.
func toActionRow(a ir.Action) (actionRow, error) {
	switch act := a.(type) {
	case ir.TraceAction:
		return actionRow{
			kind:     string(ir.KindTrace),
			keyIndex: validInt(act.KeyIndex),
			position: validInt(act.Position),
		}, nil
	case ir.SwapAction:
		return actionRow{
			kind:      string(ir.KindSwap),
			positionA: validInt(act.PositionA),
			positionB: validInt(act.PositionB),
		}, nil
	default:
		return actionRow{}, fmt.Errorf("marshal action: unsupported type %T", a)
	}
}

// action rebuilds the typed action from its columns.
func (r actionRow) action() (ir.Action, error) {
	switch ir.ActionKind(r.kind) {
	case ir.KindTrace:
		if !r.keyIndex.Valid || !r.position.Valid {
			return nil, fmt.Errorf("unmarshal action: trace row missing key_index or position")
		}
		return ir.TraceAction{
			KeyIndex: int(r.keyIndex.Int64),
			Position: int(r.position.Int64),
		}, nil
	case ir.KindSwap:
		if !r.positionA.Valid || !r.positionB.Valid {
			return nil, fmt.Errorf("unmarshal action: swap row missing position_a or position_b")
		}
		return ir.SwapAction{
			PositionA: int(r.positionA.Int64),
			PositionB: int(r.positionB.Int64),
		}, nil
	default:
		return nil, fmt.Errorf("unmarshal action: unknown kind %q", r.kind)
	}
}
