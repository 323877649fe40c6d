package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{"FEATURE1", " incremental_bin_update ", ""})

	t.Run("is set", func(t *testing.T) {
		require.True(t, f.IsSet("FEATURE1"))
		require.True(t, f.IsSet(FlagIncrementalBinUpdate))
		require.False(t, f.IsSet(FlagDisableNarrowPhase))
		require.Len(t, f, 2)
	})

	t.Run("run if enabled", func(t *testing.T) {
		var runFeature1 bool
		f.IfSet("FEATURE1", func() {
			runFeature1 = true
		})
		require.True(t, runFeature1)

		var runFeature2 bool
		f.IfSet("FEATURE2", func() {
			runFeature2 = true
		})
		require.False(t, runFeature2)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var runFeature1 bool
		f.IfNotSet("FEATURE1", func() {
			runFeature1 = true
		})
		require.False(t, runFeature1)

		var runFeature2 bool
		f.IfNotSet("FEATURE2", func() {
			runFeature2 = true
		})
		require.True(t, runFeature2)
	})

	t.Run("nil feature flags", func(t *testing.T) {
		var f FeatureFlag
		require.False(t, f.IsSet(FlagDisableNarrowPhase))
	})
}
