package handler

import "sync"

// scopeLocks serializes event handling per scope key. Entries are dropped
// once no goroutine holds or waits for them.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	mu   sync.Mutex
	refs int
}

func (l *scopeLocks) lock(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*scopeLock)
	}
	s, ok := l.locks[key]
	if !ok {
		s = &scopeLock{}
		l.locks[key] = s
	}
	s.refs++
	l.mu.Unlock()

	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		l.mu.Lock()
		s.refs--
		if s.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *scopeLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
