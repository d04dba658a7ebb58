package ledger

import (
	"sort"
	"sync"
)

// lockTable serializes mutations per item code. Batch operations take every
// lock in sorted order so two overlapping groups cannot deadlock.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(code string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[code]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[code] = lock
	}
	return lock
}

// lock acquires the mutex for one item and returns its release func.
func (t *lockTable) lock(code string) func() {
	lock := t.get(code)
	lock.Lock()
	return lock.Unlock
}

// lockAll acquires the mutexes for a set of items in sorted order and
// returns a func releasing them all.
func (t *lockTable) lockAll(codes []string) func() {
	unique := make(map[string]bool, len(codes))
	for _, code := range codes {
		unique[code] = true
	}
	ordered := make([]string, 0, len(unique))
	for code := range unique {
		ordered = append(ordered, code)
	}
	sort.Strings(ordered)

	locks := make([]*sync.Mutex, len(ordered))
	for i, code := range ordered {
		locks[i] = t.get(code)
		locks[i].Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
