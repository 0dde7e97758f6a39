package engine

import "github.com/roach88/soralvi/internal/ir"

// KeyRegistry maps cursor names to stable small integers.
//
// Indices are assigned sequentially from 0 in first-seen order and never
// change within a run. Names are compared byte-for-byte: two strings that
// differ only in Unicode normalization are distinct cursors.
type KeyRegistry struct {
	byName map[string]int
	keys   []ir.KeyMapping
}

// NewKeyRegistry creates an empty registry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{byName: make(map[string]int)}
}

// Resolve returns the index previously assigned to name, assigning the next
// sequential index if the name is new.
func (r *KeyRegistry) Resolve(name string) int {
	if idx, ok := r.byName[name]; ok {
		return idx
	}
	idx := len(r.keys)
	r.byName[name] = idx
	r.keys = append(r.keys, ir.KeyMapping{Key: name, Index: idx})
	return idx
}

// Name returns the cursor name assigned to index.
func (r *KeyRegistry) Name(index int) (string, bool) {
	if index < 0 || index >= len(r.keys) {
		return "", false
	}
	return r.keys[index].Key, true
}

// Len returns the number of distinct names seen.
func (r *KeyRegistry) Len() int {
	return len(r.keys)
}

// Keys returns a copy of the mappings in index order.
func (r *KeyRegistry) Keys() []ir.KeyMapping {
	out := make([]ir.KeyMapping, len(r.keys))
	copy(out, r.keys)
	return out
}

// Reset forgets every mapping.
func (r *KeyRegistry) Reset() {
	r.byName = make(map[string]int)
	r.keys = nil
}

// load replaces the registry contents with previously exported mappings.
// Mappings must be dense and in index order.
func (r *KeyRegistry) load(keys []ir.KeyMapping) error {
	r.Reset()
	for i, k := range keys {
		if k.Index != i {
			return &RuntimeError{
				Code:    ErrCodeInvalidArgument,
				Message: "cursor key indices must be sequential from 0",
				Details: map[string]string{"key": k.Key},
			}
		}
		if _, dup := r.byName[k.Key]; dup {
			return &RuntimeError{
				Code:    ErrCodeInvalidArgument,
				Message: "duplicate cursor key",
				Details: map[string]string{"key": k.Key},
			}
		}
		r.Resolve(k.Key)
	}
	return nil
}
