package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		require.NoError(t, validateConfig(defaultConfig()))
	})

	t.Run("sub unit cell sizes", func(t *testing.T) {
		conf := defaultConfig()
		conf.Grid.CellWidth = 0.5
		conf.Grid.CellHeight = 0.25
		conf.Grid.CellDepth = 0.5
		require.NoError(t, validateConfig(conf))
	})

	t.Run("invalid cell sizes", func(t *testing.T) {
		for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), math.MaxFloat64} {
			conf := defaultConfig()
			conf.Grid.CellHeight = v
			require.Error(t, validateConfig(conf), "cell height %v", v)
		}
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		conf := defaultConfig()
		conf.Grid.Depth = 0
		require.Error(t, validateConfig(conf))
	})

	t.Run("negative prewarm counts", func(t *testing.T) {
		conf := defaultConfig()
		conf.Pools.PrewarmNodes = -1
		require.Error(t, validateConfig(conf))
	})

	t.Run("empty server id", func(t *testing.T) {
		conf := defaultConfig()
		conf.ServerID = ""
		require.Error(t, validateConfig(conf))
	})
}
