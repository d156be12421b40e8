package validate

import (
	"sync"

	"orgscout/domain/core"
)

// entityLocks serializes validation per entity so two concurrent
// validations for the same organization can never both clear the
// consistency pass against a stale view of the store. Locks for different
// entities are independent.
type entityLocks struct {
	mu    sync.Mutex
	locks map[core.EntityID]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[core.EntityID]*sync.Mutex)}
}

func (l *entityLocks) lock(entity core.EntityID) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[entity]
	if !ok {
		m = &sync.Mutex{}
		l.locks[entity] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
