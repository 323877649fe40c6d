package models

import (
	"sync"
	"testing"

	"github.com/aukilabs/dagaz/bin"
	"github.com/aukilabs/dagaz/geom"
	"github.com/aukilabs/dagaz/list"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

var testGrid = GridConfig{
	Width:      4,
	Height:     4,
	Depth:      4,
	CellWidth:  1,
	CellHeight: 1,
	CellDepth:  1,
}

func newTestSession(t *testing.T) *Session {
	session, err := NewSession(42, testGrid)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func box(minX, minY, minZ, maxX, maxY, maxZ float32) geom.Bounds3 {
	return geom.NewBounds3(mgl32.Vec3{minX, minY, minZ}, mgl32.Vec3{maxX, maxY, maxZ})
}

func TestNewSession(t *testing.T) {
	t.Run("creates a session", func(t *testing.T) {
		session := newTestSession(t)
		require.Equal(t, uint32(42), session.ID)
		require.NotEmpty(t, session.SessionUUID)
		require.Equal(t, testGrid, session.Grid)
	})

	t.Run("invalid grid returns an error", func(t *testing.T) {
		grid := testGrid
		grid.CellDepth = 0

		_, err := NewSession(42, grid)
		require.Error(t, err)
		require.Equal(t, bin.ErrTypeInvalidConfig, errors.Type(err))
	})
}

func TestSessionParticipants(t *testing.T) {
	session := newTestSession(t)
	participant := &Participant{ID: session.NewParticipantID()}
	require.NotZero(t, participant.ID)

	require.NoError(t, session.AddParticipant(participant))
	require.Equal(t, 1, session.ParticipantCount())
	require.Equal(t, []*Participant{participant}, session.GetParticipants())

	session.RemoveParticipant(participant)
	require.Zero(t, session.ParticipantCount())
	require.Equal(t, participant.ID, session.NewParticipantID())
}

func TestSessionAddEntity(t *testing.T) {
	session := newTestSession(t)
	bounds := box(0.5, 0.5, 0.5, 1.5, 1.5, 1.5)

	e := session.AddEntity(7, bounds)
	require.NotZero(t, e.ID)
	require.Equal(t, uint32(7), e.ParticipantID)
	require.Equal(t, bounds, e.Bounds())
	require.Equal(t, 1, session.EntityCount())
	require.Equal(t, 8, session.DebugInfo().References)

	found, ok := session.EntityByID(e.ID)
	require.True(t, ok)
	require.Equal(t, e, found)
	require.Equal(t, []*Entity{e}, session.Entities())
}

func TestSessionMoveEntity(t *testing.T) {
	for _, incremental := range []bool{false, true} {
		name := "full update"
		if incremental {
			name = "incremental update"
		}

		t.Run(name, func(t *testing.T) {
			session := newTestSession(t)
			session.SetIncrementalUpdates(incremental)

			e := session.AddEntity(7, box(0.5, 0.5, 0.5, 1.5, 1.5, 1.5))

			err := session.MoveEntity(7, e.ID, box(1.5, 1.5, 1.5, 2.5, 2.5, 2.5))
			require.NoError(t, err)
			require.Equal(t, box(1.5, 1.5, 1.5, 2.5, 2.5, 2.5), e.Bounds())
			require.Equal(t, 8, session.DebugInfo().References)
			require.Empty(t, session.QueryRegion(box(0.1, 0.1, 0.1, 0.9, 0.9, 0.9), false))
			require.Equal(t, []uint32{e.ID}, session.QueryRegion(box(2.1, 2.1, 2.1, 2.9, 2.9, 2.9), false))
		})
	}

	t.Run("unknown entity returns an error", func(t *testing.T) {
		session := newTestSession(t)

		err := session.MoveEntity(7, 99, box(0, 0, 0, 1, 1, 1))
		require.Equal(t, ErrTypeEntityNotFound, errors.Type(err))
	})

	t.Run("entity owned by another participant returns an error", func(t *testing.T) {
		session := newTestSession(t)
		e := session.AddEntity(7, box(0, 0, 0, 1, 1, 1))

		err := session.MoveEntity(8, e.ID, box(2, 2, 2, 3, 3, 3))
		require.Equal(t, ErrTypeEntityNotOwned, errors.Type(err))
		require.Equal(t, box(0, 0, 0, 1, 1, 1), e.Bounds())
	})
}

func TestSessionRemoveEntity(t *testing.T) {
	t.Run("removes an entity", func(t *testing.T) {
		session := newTestSession(t)
		e := session.AddEntity(7, box(0, 0, 0, 4, 4, 4))

		err := session.RemoveEntity(7, e.ID)
		require.NoError(t, err)
		require.Zero(t, session.EntityCount())
		require.Zero(t, session.DebugInfo().References)

		_, ok := session.EntityByID(e.ID)
		require.False(t, ok)
	})

	t.Run("unknown entity returns an error", func(t *testing.T) {
		session := newTestSession(t)

		err := session.RemoveEntity(7, 1)
		require.Equal(t, ErrTypeEntityNotFound, errors.Type(err))
	})

	t.Run("entity owned by another participant returns an error", func(t *testing.T) {
		session := newTestSession(t)
		e := session.AddEntity(7, box(0, 0, 0, 1, 1, 1))

		err := session.RemoveEntity(8, e.ID)
		require.Equal(t, ErrTypeEntityNotOwned, errors.Type(err))
		require.Equal(t, 1, session.EntityCount())
	})
}

func TestSessionRemoveParticipantEntities(t *testing.T) {
	session := newTestSession(t)
	a := session.AddEntity(1, box(0, 0, 0, 1, 1, 1))
	b := session.AddEntity(2, box(0, 0, 0, 1, 1, 1))
	c := session.AddEntity(1, box(2, 2, 2, 3, 3, 3))

	ids := session.RemoveParticipantEntities(1)
	require.Equal(t, []uint32{a.ID, c.ID}, ids)
	require.Equal(t, 1, session.EntityCount())
	require.Equal(t, []uint32{b.ID}, session.QueryRegion(box(0, 0, 0, 4, 4, 4), false))

	require.Empty(t, session.RemoveParticipantEntities(1))
}

func TestSessionQueryRegion(t *testing.T) {
	session := newTestSession(t)
	a := session.AddEntity(1, box(0.25, 0.25, 0.25, 1.75, 1.75, 1.75))
	b := session.AddEntity(1, box(2.25, 2.25, 2.25, 2.75, 2.75, 2.75))

	t.Run("returns broad-phase candidates", func(t *testing.T) {
		ids := session.QueryRegion(box(1.8, 1.8, 1.8, 2.5, 2.5, 2.5), false)
		require.Equal(t, []uint32{a.ID, b.ID}, ids)
	})

	t.Run("narrow phase filters candidates", func(t *testing.T) {
		ids := session.QueryRegion(box(1.8, 1.8, 1.8, 2.5, 2.5, 2.5), true)
		require.Equal(t, []uint32{b.ID}, ids)
	})

	t.Run("region outside the space", func(t *testing.T) {
		require.Empty(t, session.QueryRegion(box(5, 5, 5, 6, 6, 6), false))
	})
}

func TestSessionClose(t *testing.T) {
	lists := list.Pool[uint32]()
	before := lists.InUse()

	session, err := NewSession(1, testGrid)
	require.NoError(t, err)

	session.AddEntity(1, box(0, 0, 0, 4, 4, 4))
	require.Equal(t, before+64, lists.InUse())

	session.Close()
	session.Close()
	require.Equal(t, before, lists.InUse())
	require.Zero(t, session.EntityCount())
}

func TestSessionConcurrentAccess(t *testing.T) {
	session := newTestSession(t)

	var wg sync.WaitGroup
	for p := uint32(1); p <= 4; p++ {
		wg.Add(1)
		go func(participantID uint32) {
			defer wg.Done()

			for i := 0; i < 50; i++ {
				e := session.AddEntity(participantID, box(0, 0, 0, 2, 2, 2))
				if err := session.MoveEntity(participantID, e.ID, box(1, 1, 1, 3, 3, 3)); err != nil {
					t.Error(err)
				}
				session.QueryRegion(box(0, 0, 0, 4, 4, 4), true)
				if err := session.RemoveEntity(participantID, e.ID); err != nil {
					t.Error(err)
				}
			}
		}(p)
	}
	wg.Wait()

	require.Zero(t, session.EntityCount())
	require.Zero(t, session.DebugInfo().References)
}

func TestSessionStore(t *testing.T) {
	t.Run("add and get a session", func(t *testing.T) {
		var store SessionStore
		session, err := NewSession(store.NewID(), testGrid)
		require.NoError(t, err)

		store.Add(session)
		require.Equal(t, 1, store.Count())

		s, ok := store.GetByGlobalID(store.GlobalSessionID(session.ID))
		require.True(t, ok)
		require.Equal(t, session, s)

		store.Remove(session)
		require.Zero(t, store.Count())
		_, ok = store.GetByGlobalID(store.GlobalSessionID(session.ID))
		require.False(t, ok)
	})

	t.Run("global session id", func(t *testing.T) {
		store := SessionStore{ServerID: "eu1"}
		require.Equal(t, "eu1x2a", store.GlobalSessionID(42))

		var defaultStore SessionStore
		require.Equal(t, "dagazx1", defaultStore.GlobalSessionID(1))
	})

	t.Run("remove reuses the session id", func(t *testing.T) {
		var store SessionStore
		session, err := NewSession(store.NewID(), testGrid)
		require.NoError(t, err)

		store.Add(session)
		store.Remove(session)
		store.Remove(session)
		require.Equal(t, session.ID, store.NewID())
	})

	t.Run("remove if empty keeps sessions with participants", func(t *testing.T) {
		var store SessionStore
		session, err := NewSession(store.NewID(), testGrid)
		require.NoError(t, err)
		store.Add(session)
		defer store.Remove(session)

		participant := &Participant{ID: session.NewParticipantID()}
		require.NoError(t, session.AddParticipant(participant))

		require.False(t, store.RemoveIfEmpty(session))
		require.Equal(t, 1, store.Count())
	})

	t.Run("remove if empty closes the session to late joiners", func(t *testing.T) {
		var store SessionStore
		session, err := NewSession(store.NewID(), testGrid)
		require.NoError(t, err)
		store.Add(session)

		first := &Participant{ID: session.NewParticipantID()}
		require.NoError(t, session.AddParticipant(first))

		// A second client resolved the session before the first one left.
		resolved, ok := store.GetByGlobalID(store.GlobalSessionID(session.ID))
		require.True(t, ok)

		session.RemoveParticipant(first)
		require.True(t, store.RemoveIfEmpty(session))
		require.Zero(t, store.Count())
		require.False(t, store.RemoveIfEmpty(session))

		err = resolved.AddParticipant(&Participant{ID: resolved.NewParticipantID()})
		require.Error(t, err)
		require.Equal(t, ErrTypeSessionClosed, errors.Type(err))
		require.Zero(t, resolved.ParticipantCount())
	})
}
