package shared

import (
	"strings"
	"sync"
)

// KeyedLockRegistry hands out one mutex per (investorID, stockID) pair,
// created lazily on first use. Requests for distinct pairs never block each
// other; two requests for the same pair are serialized. Locks must wrap only
// short critical sections, never I/O.
//
// Entries for an offering are released through EvictStock once its draw has
// executed, so memory stays bounded by the offerings still open. Callers that
// never draw (tests, tooling) can skip eviction; growth is then proportional
// to distinct (investor, stock) pairs, as in the reference behavior.
type KeyedLockRegistry struct {
	locks sync.Map // key string -> *sync.Mutex
}

// NewKeyedLockRegistry creates an empty registry.
func NewKeyedLockRegistry() *KeyedLockRegistry {
	return &KeyedLockRegistry{}
}

func lockKey(investorID, stockID string) string {
	return investorID + ":" + stockID
}

// Acquire locks the mutex for the pair and returns the unlock function.
func (r *KeyedLockRegistry) Acquire(investorID, stockID string) func() {
	mu := r.mutexFor(investorID, stockID)
	mu.Lock()
	return mu.Unlock
}

func (r *KeyedLockRegistry) mutexFor(investorID, stockID string) *sync.Mutex {
	key := lockKey(investorID, stockID)
	if existing, ok := r.locks.Load(key); ok {
		return existing.(*sync.Mutex)
	}
	actual, _ := r.locks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// EvictStock drops every lock entry belonging to the offering. Called after
// the offering's draw executes, when no further applications can arrive.
func (r *KeyedLockRegistry) EvictStock(stockID string) {
	suffix := ":" + stockID
	r.locks.Range(func(key, _ any) bool {
		if strings.HasSuffix(key.(string), suffix) {
			r.locks.Delete(key)
		}
		return true
	})
}

// Size returns the number of live lock entries.
func (r *KeyedLockRegistry) Size() int {
	n := 0
	r.locks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
