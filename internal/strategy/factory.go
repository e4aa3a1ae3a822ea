package strategy

import (
	"strings"
	"time"
)

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	Symbols           []string
	Currency          string
	OBILevels         int
	OBIThreshold      float64
	VolWindowSecs     int
	TrendThreshold    float64
	TrendWindowSecs   int
	TrendMinVolumeUSD float64
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) Algorithm {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "trend", "trend_follow", "trend_follower":
		return newTrendFollower(params)
	default:
		return newOBIMomentum(params)
	}
}

func newOBIMomentum(p Params) *OBIMomentum {
	return NewOBIMomentum(OBIConfig{
		Currency:  p.Currency,
		Symbols:   p.Symbols,
		Threshold: p.OBIThreshold,
		Window:    time.Duration(p.VolWindowSecs) * time.Second,
	})
}

func newTrendFollower(p Params) *TrendFollower {
	return NewTrendFollower(TrendConfig{
		Currency:    p.Currency,
		Symbols:     p.Symbols,
		Threshold:   p.TrendThreshold,
		Window:      time.Duration(p.TrendWindowSecs) * time.Second,
		MinNotional: p.TrendMinVolumeUSD,
	})
}

// Descriptor names a strategy type and how to construct it.
type Descriptor struct {
	Name string
	New  func() Algorithm
}

// Catalog is a set of strategy types found at one location.
type Catalog struct {
	Path        string
	Descriptors []Descriptor
}

// Location returns where the catalog was read from.
func (c Catalog) Location() string { return c.Path }

// Types returns a copy of the catalog's descriptors.
func (c Catalog) Types() []Descriptor {
	out := make([]Descriptor, len(c.Descriptors))
	copy(out, c.Descriptors)
	return out
}

// BuiltinLocation names the catalog compiled into the binary.
const BuiltinLocation = "builtin"

// Builtin exposes the compiled-in strategies configured with params.
func Builtin(params Params) Catalog {
	return Catalog{
		Path: BuiltinLocation,
		Descriptors: []Descriptor{
			{Name: "OBIMomentum", New: func() Algorithm { return newOBIMomentum(params) }},
			{Name: "TrendFollower", New: func() Algorithm { return newTrendFollower(params) }},
		},
	}
}
