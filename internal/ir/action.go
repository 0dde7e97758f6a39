package ir

import "fmt"

// ActionKind tags the variant of an Action.
type ActionKind string

const (
	// KindTrace marks a cursor observation.
	KindTrace ActionKind = "trace"
	// KindSwap marks a structural exchange of two positions.
	KindSwap ActionKind = "swap"
)

// Action is a sealed interface for recorded instrumentation calls.
// Only TraceAction and SwapAction implement it.
type Action interface {
	Kind() ActionKind
	action() // Sealed
}

// TraceAction records that cursor KeyIndex pointed at Position.
// Position is opaque data: it is not bounds-checked when recorded.
type TraceAction struct {
	KeyIndex int `json:"key_index"`
	Position int `json:"position"`
}

func (TraceAction) action() {}

// Kind implements Action.
func (TraceAction) Kind() ActionKind { return KindTrace }

// SwapAction records that the values at PositionA and PositionB were exchanged.
type SwapAction struct {
	PositionA int `json:"position_a"`
	PositionB int `json:"position_b"`
}

func (SwapAction) action() {}

// Kind implements Action.
func (SwapAction) Kind() ActionKind { return KindSwap }

// String renders a compact form used in logs and CLI timelines.
func (a TraceAction) String() string {
	return fmt.Sprintf("trace(k=%d, i=%d)", a.KeyIndex, a.Position)
}

// String renders a compact form used in logs and CLI timelines.
func (a SwapAction) String() string {
	return fmt.Sprintf("swap(%d, %d)", a.PositionA, a.PositionB)
}
