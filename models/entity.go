package models

import (
	"sync"

	"github.com/aukilabs/dagaz/geom"
)

// Entity is an object placed in a session space by a participant.
type Entity struct {
	ID            uint32
	ParticipantID uint32

	mutex  sync.RWMutex
	bounds geom.Bounds3
}

// Bounds returns the bounds the entity is indexed with.
func (e *Entity) Bounds() geom.Bounds3 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.bounds
}

func (e *Entity) setBounds(v geom.Bounds3) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.bounds = v
}
