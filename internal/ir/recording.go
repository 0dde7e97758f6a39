package ir

// KeyMapping binds a user-chosen cursor name to its stable index within a run.
type KeyMapping struct {
	Key   string `json:"key"`
	Index int    `json:"index"`
}

// Recording is the exported form of one finished algorithm run: the pristine
// array it started from, the cursor keys it introduced and its action log.
type Recording struct {
	ID      string // Content-addressed, see RecordingID
	RunID   string // UUIDv7 assigned by the engine
	Source  string
	Initial []int
	Keys    []KeyMapping
	Actions []Action
}

// KeyName returns the cursor name for a key index.
func (r *Recording) KeyName(index int) (string, bool) {
	for _, k := range r.Keys {
		if k.Index == index {
			return k.Key, true
		}
	}
	return "", false
}

// Counts returns the number of trace and swap actions in the recording.
func (r *Recording) Counts() (traces, swaps int) {
	for _, a := range r.Actions {
		switch a.(type) {
		case TraceAction:
			traces++
		case SwapAction:
			swaps++
		}
	}
	return traces, swaps
}
