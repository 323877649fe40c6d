package pool

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	value int
}

func TestPoolSpawn(t *testing.T) {
	t.Run("creates with the factory when empty", func(t *testing.T) {
		var calls int
		p := New("test_spawn", func() *testItem {
			calls++
			return &testItem{value: 42}
		})

		v := p.Spawn()
		require.Equal(t, 42, v.value)
		require.Equal(t, 1, calls)
		require.Equal(t, 1, p.InUse())
		require.Equal(t, 1, p.Created())
		require.Zero(t, p.Available())
	})

	t.Run("reuses despawned instances", func(t *testing.T) {
		p := New[testItem]("test_reuse", nil)

		a := p.Spawn()
		p.Despawn(a)
		require.Equal(t, 1, p.Available())
		require.Zero(t, p.InUse())

		b := p.Spawn()
		require.Same(t, a, b)
		require.Equal(t, 1, p.Created())
		require.Zero(t, p.Available())
	})
}

func TestPoolDespawn(t *testing.T) {
	t.Run("panics on double despawn", func(t *testing.T) {
		p := New[testItem]("test_double", nil)

		v := p.Spawn()
		p.Despawn(v)

		defer func() {
			r := recover()
			require.NotNil(t, r)

			err, ok := r.(error)
			require.True(t, ok)
			require.Equal(t, ErrTypeDoubleDespawn, errors.Type(err))
		}()
		p.Despawn(v)
	})

	t.Run("panics on nil", func(t *testing.T) {
		p := New[testItem]("test_nil", nil)

		require.Panics(t, func() {
			p.Despawn(nil)
		})
	})

	t.Run("balanced cycles do not grow the pool", func(t *testing.T) {
		p := New[testItem]("test_balanced", nil)

		spawnAll := func(n int) []*testItem {
			items := make([]*testItem, n)
			for i := range items {
				items[i] = p.Spawn()
			}
			return items
		}

		for _, v := range spawnAll(8) {
			p.Despawn(v)
		}
		before := p.Stats()

		for _, v := range spawnAll(8) {
			p.Despawn(v)
		}
		require.Equal(t, before, p.Stats())
	})
}

func TestPoolPrewarm(t *testing.T) {
	p := New[testItem]("test_prewarm", nil)

	p.Prewarm(16)
	require.Equal(t, 16, p.Available())
	require.Equal(t, 16, p.Created())

	p.Prewarm(4)
	require.Equal(t, 16, p.Available())

	p.Spawn()
	require.Equal(t, 16, p.Created())
	require.Equal(t, 15, p.Available())
}

func TestShared(t *testing.T) {
	type sharedItem struct{}
	type otherItem struct{}

	a := Shared[sharedItem]("test_shared", nil)
	b := Shared[sharedItem]("ignored", nil)
	require.Same(t, a, b)
	require.Equal(t, "test_shared", b.Name())

	c := Shared[otherItem]("test_other", nil)
	require.Equal(t, "test_other", c.Name())
}
