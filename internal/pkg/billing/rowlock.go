package billing

import "sync"

// rowLocks serializes mutating operations per subscription owner. Two
// interleaved operations on the same account (a double-clicked plan change,
// or the expiration sweep racing a manual renewal) must not produce a local
// state that reflects neither outcome. Sinks are dispatched only after the
// lock is released.
type rowLocks struct {
	mu   sync.Mutex
	rows map[uint]*sync.Mutex
}

func newRowLocks() *rowLocks {
	return &rowLocks{rows: make(map[uint]*sync.Mutex)}
}

func (l *rowLocks) Lock(userID uint) {
	l.mu.Lock()
	m, ok := l.rows[userID]
	if !ok {
		m = &sync.Mutex{}
		l.rows[userID] = m
	}
	l.mu.Unlock()
	m.Lock()
}

func (l *rowLocks) Unlock(userID uint) {
	l.mu.Lock()
	m := l.rows[userID]
	l.mu.Unlock()
	m.Unlock()
}
