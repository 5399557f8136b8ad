package render

import (
	"sync"

	"github.com/fresque-dev/fresque/internal/paths"
)

// FormState owns the draft record of one edit session. Controls read and
// write it through their bound paths. All access goes through the mutex so
// a channel-driven lock update can flip ReadOnly while the host renders.
type FormState struct {
	mu       sync.RWMutex
	record   map[string]any
	readOnly bool
}

// NewFormState copies initial into a fresh draft. A nil initial starts an
// empty record.
func NewFormState(initial map[string]any) *FormState {
	return &FormState{record: cloneMap(initial)}
}

// Get resolves path against the draft, distinguishing defined null from
// absent.
func (s *FormState) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paths.Get(s.record, path)
}

// Set writes value at path, creating intermediate objects as needed.
func (s *FormState) Set(path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = paths.Set(s.record, path, value)
}

// Unset removes the value at path. Optional toggles call this when disabled
// so the field round-trips as absent rather than null.
func (s *FormState) Unset(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths.Unset(s.record, path)
}

// Snapshot returns an independent deep copy of the draft.
func (s *FormState) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMap(s.record)
}

// SetReadOnly flips the read-only flag, typically when an edit lock is
// denied or released.
func (s *FormState) SetReadOnly(ro bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = ro
}

// ReadOnly reports whether controls should render disabled.
func (s *FormState) ReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
