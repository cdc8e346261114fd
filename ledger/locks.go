package ledger

import (
	"sort"

	"github.com/algorand/go-deadlock"
)

// accountLocks hands out one mutex per account key, created on demand. Entries are never
// removed since accounts are never deleted.
type accountLocks struct {
	mu    deadlock.Mutex
	locks map[string]*deadlock.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*deadlock.Mutex)}
}

// ordered returns the mutexes for keys, deduplicated and sorted by key so that any two
// callers locking overlapping sets acquire them in the same order.
func (t *accountLocks) ordered(keys ...string) []*deadlock.Mutex {
	uniq := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		uniq[k] = struct{}{}
	}

	sorted := make([]string, 0, len(uniq))
	for k := range uniq {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	locks := make([]*deadlock.Mutex, 0, len(sorted))
	t.mu.Lock()
	for _, k := range sorted {
		lk, ok := t.locks[k]
		if !ok {
			lk = &deadlock.Mutex{}
			t.locks[k] = lk
		}
		locks = append(locks, lk)
	}
	t.mu.Unlock()
	return locks
}

// lock acquires the locks for keys and returns the matching unlock.
func (t *accountLocks) lock(keys ...string) (unlock func()) {
	locks := t.ordered(keys...)
	for _, lk := range locks {
		lk.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
