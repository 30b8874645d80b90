package session

import "sync"

// LockManager hands out one mutex per session, created on first use
type LockManager struct {
	locks map[string]*sync.Mutex
	mu    sync.RWMutex
}

// NewLockManager creates an empty lock manager
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

// Get returns the session's mutex
func (lm *LockManager) Get(sessionID string) *sync.Mutex {
	lm.mu.RLock()
	if lock, exists := lm.locks[sessionID]; exists {
		lm.mu.RUnlock()
		return lock
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()

	// double check under the write lock
	if lock, exists := lm.locks[sessionID]; exists {
		return lock
	}

	lock := &sync.Mutex{}
	lm.locks[sessionID] = lock
	return lock
}

// Lock acquires the session's mutex and returns its unlock function
func (lm *LockManager) Lock(sessionID string) func() {
	lock := lm.Get(sessionID)
	lock.Lock()
	return lock.Unlock
}

// Len returns how many sessions have a lock
func (lm *LockManager) Len() int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return len(lm.locks)
}
