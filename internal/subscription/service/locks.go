package service

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// accountLocks serializes all ledger writes for one account. Interleaved
// upgrade, cancel and sync calls for the same account run one at a time;
// different accounts never contend.
type accountLocks struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[snowflake.ID]*accountLock)}
}

// Lock acquires the per-account mutex and returns its release function.
// Lock entries are reference counted so the map does not grow with every
// account ever seen.
func (l *accountLocks) Lock(accountID snowflake.ID) func() {
	l.mu.Lock()
	entry, ok := l.locks[accountID]
	if !ok {
		entry = &accountLock{}
		l.locks[accountID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, accountID)
		}
		l.mu.Unlock()
	}
}
