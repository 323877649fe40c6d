package models

import "sync"

// SequentialIDGenerator hands out the uint32 ids of sessions, participants
// and entities. Ids start at 1 so that 0 never names a live object, and ids
// given back with Reuse are handed out again before new ones are minted.
// The zero value is ready to use.
type SequentialIDGenerator struct {
	mutex    sync.Mutex
	last     uint32
	released map[uint32]struct{}
}

// New returns a released id when there is one, or the next sequential id.
func (g *SequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for id := range g.released {
		delete(g.released, id)
		return id
	}

	g.last++
	return g.last
}

// Reuse releases id so that a later call to New returns it.
func (g *SequentialIDGenerator) Reuse(id uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.released == nil {
		g.released = make(map[uint32]struct{})
	}
	g.released[id] = struct{}{}
}
