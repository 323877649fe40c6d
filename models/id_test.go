package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequentialIDGenerator(t *testing.T) {
	t.Run("ids start at one", func(t *testing.T) {
		var ids SequentialIDGenerator

		for i := uint32(1); i <= 5; i++ {
			require.Equal(t, i, ids.New())
		}
	})

	t.Run("released entity id is handed out first", func(t *testing.T) {
		var ids SequentialIDGenerator
		for range 5 {
			ids.New()
		}

		ids.Reuse(2)
		require.Equal(t, uint32(2), ids.New())
		require.Equal(t, uint32(6), ids.New())
	})

	t.Run("every released id comes back once", func(t *testing.T) {
		var ids SequentialIDGenerator
		for range 4 {
			ids.New()
		}

		ids.Reuse(1)
		ids.Reuse(3)
		ids.Reuse(3)

		got := []uint32{ids.New(), ids.New()}
		require.ElementsMatch(t, []uint32{1, 3}, got)
		require.Equal(t, uint32(5), ids.New())
	})
}
