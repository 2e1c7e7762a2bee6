package server

import "sync"

// viewLocks serializes read-modify-write cycles on one view so that
// concurrent toggles are applied one after another. Entries are dropped once
// no request holds or waits on them.
//
// Locks are per process. Servers sharing a file store across processes are
// still last-writer-wins.
type viewLocks struct {
	mu   sync.Mutex
	held map[string]*viewLock
}

type viewLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the caller owns id and returns the release function.
func (v *viewLocks) lock(id string) func() {
	v.mu.Lock()
	if v.held == nil {
		v.held = make(map[string]*viewLock)
	}
	l, ok := v.held[id]
	if !ok {
		l = &viewLock{}
		v.held[id] = l
	}
	l.refs++
	v.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		v.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(v.held, id)
		}
		v.mu.Unlock()
	}
}

func (v *viewLocks) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.held)
}
