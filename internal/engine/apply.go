package engine

import (
	"fmt"

	"github.com/roach88/soralvi/internal/ir"
)

// applyRecorded handles an action produced by a live instrumentation call:
// it is appended to the log, and swaps are applied to the working array.
//
// A swap is validated before it is appended so the log never contains a
// swap the live run could not perform.
func applyRecorded(c *ExecutionContext, a ir.Action) error {
	switch act := a.(type) {
	case ir.TraceAction:
		c.log.Append(act)
		return nil
	case ir.SwapAction:
		if err := c.array.Swap(act.PositionA, act.PositionB); err != nil {
			return err
		}
		c.log.Append(act)
		return nil
	default:
		return fmt.Errorf("unsupported action %T", a)
	}
}

// applyReplayed handles one action read back from the log: traces overwrite
// the highlight for their key, swaps are applied to the working array.
//
// Returns false if the action had no effect. That only happens for swaps
// outside the array, which can appear in logs loaded from an archive.
func applyReplayed(e *Engine, a ir.Action) bool {
	switch act := a.(type) {
	case ir.TraceAction:
		e.highlights[act.KeyIndex] = act
		return true
	case ir.SwapAction:
		return e.array.Swap(act.PositionA, act.PositionB) == nil
	default:
		return false
	}
}
