package availability

import "sync"

// Tracker hands out fetch generations per key so an older fetch finishing late
// cannot replace a snapshot committed by a newer one.
type Tracker struct {
	mu        sync.Mutex
	issued    map[string]uint64
	committed map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{
		issued:    map[string]uint64{},
		committed: map[string]uint64{},
	}
}

// Begin returns the generation for a fetch that starts now.
func (t *Tracker) Begin(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued[key]++
	return t.issued[key]
}

// Commit records gen as the latest applied result. It returns false when a newer
// generation has already been committed or the key was superseded.
func (t *Tracker) Commit(key string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen <= t.committed[key] {
		return false
	}
	t.committed[key] = gen
	return true
}

// Latest reports the last committed generation for key.
func (t *Tracker) Latest(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed[key]
}

// Supersede marks every in-flight fetch for key as stale.
func (t *Tracker) Supersede(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued[key]++
	t.committed[key] = t.issued[key]
}
