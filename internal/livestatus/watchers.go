package livestatus

import "sync"

// RunningCountWatcher tracks the platform-wide running job counter pushed on
// the running_dag_count event.
type RunningCountWatcher struct {
	mu       sync.Mutex
	count    int
	onChange func(int)
}

// NewRunningCountWatcher builds a watcher. onChange is optional and fires
// only when the count actually changes.
func NewRunningCountWatcher(onChange func(int)) *RunningCountWatcher {
	return &RunningCountWatcher{onChange: onChange}
}

// Update applies a pushed counter value.
func (w *RunningCountWatcher) Update(count int) {
	w.mu.Lock()
	changed := count != w.count
	w.count = count
	cb := w.onChange
	w.mu.Unlock()

	if changed && cb != nil {
		cb(count)
	}
}

// Count returns the last pushed value.
func (w *RunningCountWatcher) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// LockEvent is one lock_state push for an edit lock.
type LockEvent struct {
	LockID   string `json:"lockId"`
	Holder   string `json:"holder,omitempty"`
	Acquired bool   `json:"acquired"`
}

// LockState tracks one resource's edit lock. A denied or lost lock flips the
// view read-only; it is never an error.
type LockState struct {
	mu         sync.Mutex
	lockID     string
	holder     string
	held       bool
	onReadOnly func(bool)
}

// NewLockState builds a lock tracker for one lock id. onReadOnly is optional
// and receives true when editing must be disabled.
func NewLockState(lockID string, onReadOnly func(bool)) *LockState {
	return &LockState{lockID: lockID, onReadOnly: onReadOnly}
}

// Apply folds one lock event. Events for other lock ids are ignored.
func (s *LockState) Apply(ev LockEvent) {
	s.mu.Lock()
	if ev.LockID != s.lockID {
		s.mu.Unlock()
		return
	}
	changed := s.held != ev.Acquired
	s.held = ev.Acquired
	s.holder = ev.Holder
	cb := s.onReadOnly
	s.mu.Unlock()

	if changed && cb != nil {
		cb(!ev.Acquired)
	}
}

// Held reports whether this client holds the lock.
func (s *LockState) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// Holder returns the current lock holder reported by the server.
func (s *LockState) Holder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder
}
