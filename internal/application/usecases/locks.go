package usecases

import "sync"

// nameLocks serializes promotions per prompt name within this process.
// Cross-process races are caught by the repository's compare-and-swap
// activation; the lock just keeps local contenders from burning a
// transaction each.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*sync.Mutex)}
}

// promotionLocks is shared by every usecase that swaps an active version, so
// a manual activation and an improvement promotion on the same name serialize
// against each other instead of racing to the compare-and-swap.
var promotionLocks = newNameLocks()

func (n *nameLocks) lock(name string) (unlock func()) {
	n.mu.Lock()
	l, ok := n.locks[name]
	if !ok {
		l = &sync.Mutex{}
		n.locks[name] = l
	}
	n.mu.Unlock()
	l.Lock()
	return l.Unlock
}
