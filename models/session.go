package models

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aukilabs/dagaz/bin"
	"github.com/aukilabs/dagaz/geom"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
)

const (
	ErrTypeEntityNotFound = "entity_not_found"
	ErrTypeEntityNotOwned = "entity_not_owned"
	ErrTypeSessionClosed  = "session_closed"
)

// GridConfig describes the spatial bin backing a session.
type GridConfig struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Depth      int     `json:"depth"`
	CellWidth  float32 `json:"cell_width"`
	CellHeight float32 `json:"cell_height"`
	CellDepth  float32 `json:"cell_depth"`
}

// Session represents a session that contains participants and the entities
// they placed in a shared space.
type Session struct {
	ID          uint32
	SessionUUID string
	Grid        GridConfig

	participantIDs   SequentialIDGenerator
	participantMutex sync.RWMutex
	participants     map[uint32]*Participant
	closed           bool

	entityIDs SequentialIDGenerator

	// Guards the bin and everything indexed by it.
	mutex       sync.Mutex
	bin         *bin.Bin3D[uint32]
	entities    map[uint32]*Entity
	results     bin.ResultSet[uint32]
	incremental bool

	closeOnce sync.Once
}

func NewSession(id uint32, grid GridConfig) (*Session, error) {
	b, err := bin.NewBin3D[uint32](
		grid.Width,
		grid.Height,
		grid.Depth,
		grid.CellWidth,
		grid.CellHeight,
		grid.CellDepth,
	)
	if err != nil {
		return nil, errors.New("creating session bin failed").
			WithTag("session_id", id).
			Wrap(err)
	}

	return &Session{
		ID:           id,
		SessionUUID:  uuid.New().String(),
		Grid:         grid,
		participants: make(map[uint32]*Participant),
		bin:          b,
		entities:     make(map[uint32]*Entity),
		results:      bin.NewResultSet[uint32](64),
	}, nil
}

// Close removes every entity and gives the bin cell lists back to their
// pool.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		instrumentRemoveEntities(len(s.entities))
		clear(s.entities)
		s.bin.Dispose()
	})
}

// SetIncrementalUpdates makes entity moves only touch the cells that differ
// between the previous and the new bounds.
func (s *Session) SetIncrementalUpdates(v bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.incremental = v
}

func (s *Session) NewParticipantID() uint32 {
	return s.participantIDs.New()
}

// AddParticipant adds p to the session. It fails once the session has been
// removed from its store for being empty.
func (s *Session) AddParticipant(p *Participant) error {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	if s.closed {
		return errors.New("session is closed").
			WithType(ErrTypeSessionClosed).
			WithTag("session_id", s.ID).
			WithTag("participant_id", p.ID)
	}

	s.participants[p.ID] = p
	return nil
}

func (s *Session) RemoveParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	delete(s.participants, p.ID)
	s.participantIDs.Reuse(p.ID)
}

func (s *Session) GetParticipants() []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		participants = append(participants, p)
	}
	return participants
}

// closeIfEmpty marks the session closed when it has no participants, so no
// one can join it afterwards.
func (s *Session) closeIfEmpty() bool {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	if len(s.participants) != 0 {
		return false
	}
	s.closed = true
	return true
}

func (s *Session) ParticipantCount() int {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	return len(s.participants)
}

// AddEntity creates an entity owned by the given participant and indexes it
// in the session bin.
func (s *Session) AddEntity(participantID uint32, bounds geom.Bounds3) *Entity {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e := &Entity{
		ID:            s.entityIDs.New(),
		ParticipantID: participantID,
		bounds:        bounds,
	}
	s.entities[e.ID] = e
	s.bin.Insert(e.ID, bounds)

	instrumentAddEntity()
	return e
}

// MoveEntity sets the bounds of an entity owned by the given participant.
func (s *Session) MoveEntity(participantID, id uint32, bounds geom.Bounds3) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, err := s.ownedEntity(participantID, id)
	if err != nil {
		return err
	}

	prev := e.Bounds()
	if s.incremental {
		s.bin.UpdateIncremental(e.ID, prev, bounds)
	} else {
		s.bin.Update(e.ID, prev, bounds)
	}
	e.setBounds(bounds)
	return nil
}

// RemoveEntity removes an entity owned by the given participant.
func (s *Session) RemoveEntity(participantID, id uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, err := s.ownedEntity(participantID, id)
	if err != nil {
		return err
	}

	s.removeEntity(e)
	return nil
}

// RemoveParticipantEntities removes all the entities owned by the given
// participant and returns their ids in ascending order.
func (s *Session) RemoveParticipantEntities(participantID uint32) []uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var ids []uint32
	for _, e := range s.entities {
		if e.ParticipantID == participantID {
			ids = append(ids, e.ID)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		s.removeEntity(s.entities[id])
	}
	return ids
}

// QueryRegion returns the ids of the entities found in the cells covered by
// bounds, in ascending order. With narrowPhase, entities whose bounds do not
// intersect the region are filtered out.
func (s *Session) QueryRegion(bounds geom.Bounds3, narrowPhase bool) []uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.results.Reset()
	s.bin.Retrieve(bounds, s.results)

	ids := make([]uint32, 0, s.results.Len())
	for id := range s.results {
		if narrowPhase && !s.entities[id].Bounds().Intersects(bounds) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	instrumentRegionQuery(s.results.Len(), len(ids))
	return ids
}

func (s *Session) EntityByID(id uint32) (*Entity, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entities[id]
	return e, ok
}

func (s *Session) Entities() []*Entity {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entities := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		entities = append(entities, e)
	}
	return entities
}

func (s *Session) EntityCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.entities)
}

// DebugInfo returns the occupancy of the session bin.
func (s *Session) DebugInfo() bin.DebugInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.bin.DebugInfo()
}

func (s *Session) ownedEntity(participantID, id uint32) (*Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, errors.New("entity not found").
			WithType(ErrTypeEntityNotFound).
			WithTag("session_id", s.ID).
			WithTag("entity_id", id)
	}

	if e.ParticipantID != participantID {
		return nil, errors.New("entity is owned by another participant").
			WithType(ErrTypeEntityNotOwned).
			WithTag("session_id", s.ID).
			WithTag("entity_id", id).
			WithTag("participant_id", participantID).
			WithTag("owner_id", e.ParticipantID)
	}
	return e, nil
}

func (s *Session) removeEntity(e *Entity) {
	s.bin.Remove(e.ID, e.Bounds())
	delete(s.entities, e.ID)
	s.entityIDs.Reuse(e.ID)
	instrumentRemoveEntities(1)
}

type SessionStore struct {
	// The id identifying this server in global session ids.
	ServerID string

	initOnce sync.Once
	mutex    sync.RWMutex
	sessions map[string]*Session
	ids      SequentialIDGenerator
}

func (s *SessionStore) init() {
	s.sessions = map[string]*Session{}

	if s.ServerID == "" {
		s.ServerID = "dagaz"
	}
}

func (s *SessionStore) NewID() uint32 {
	return s.ids.New()
}

func (s *SessionStore) Add(session *Session) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.sessions[s.GlobalSessionID(session.ID)] = session

	instrumentIncreaseSessionGauge()
	instrumentCountSession()
}

// Remove removes the session from the store and closes it.
func (s *SessionStore) Remove(session *Session) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.GlobalSessionID(session.ID)
	if _, ok := s.sessions[id]; !ok {
		return
	}

	s.remove(id, session)
}

// RemoveIfEmpty removes and closes the session when it has no participants
// left. It reports whether the session was removed.
func (s *SessionStore) RemoveIfEmpty(session *Session) bool {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.GlobalSessionID(session.ID)
	if _, ok := s.sessions[id]; !ok {
		return false
	}

	if !session.closeIfEmpty() {
		return false
	}

	s.remove(id, session)
	return true
}

func (s *SessionStore) remove(id string, session *Session) {
	delete(s.sessions, id)
	session.Close()
	s.ids.Reuse(session.ID)

	instrumentDecreaseSessionGauge()
}

func (s *SessionStore) GetByGlobalID(v string) (*Session, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[v]
	return session, ok
}

func (s *SessionStore) Count() int {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.sessions)
}

func (s *SessionStore) GlobalSessionID(sessionID uint32) string {
	s.initOnce.Do(s.init)
	return fmt.Sprintf("%sx%x", s.ServerID, sessionID)
}
