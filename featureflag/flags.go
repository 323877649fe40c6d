package featureflag

type Flag string

const (
	// Entity moves only touch the bin cells that changed.
	FlagIncrementalBinUpdate Flag = "INCREMENTAL_BIN_UPDATE"

	// Region queries return raw broad-phase candidates.
	FlagDisableNarrowPhase Flag = "DISABLE_NARROW_PHASE"
)
