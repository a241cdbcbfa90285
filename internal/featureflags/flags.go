// Package featureflags holds runtime switches read by the itinerary engine.
package featureflags

import (
	"time"
)

// Flag keys.
const (
	// FlagKeepBoundaryLegs links legs authored before the first stop or
	// after the last one as self-edges instead of dropping them.
	FlagKeepBoundaryLegs = "legs_keep_boundary"

	// FlagDisableFlowCache bypasses the assembled-flow cache.
	FlagDisableFlowCache = "flow_cache_disabled"

	// FlagDisableSaveEvents stops publishing itinerary.saved events.
	FlagDisableSaveEvents = "save_events_disabled"

	// FlagFlowCacheTTLSeconds is the lifetime of a cached flow.
	FlagFlowCacheTTLSeconds = "flow_cache_ttl_seconds"
)

// Flag is a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList is the wire form of all flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate is one requested change.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest is the admin update payload.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the flag as a boolean, or defaultValue when the flag is
// nil or not boolean-like.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON numbers decode as float64
		return v != 0
	default:
		return defaultValue
	}
}

// IntValue returns the flag as an integer, or defaultValue.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultValue
	}
}

// DefaultFlags returns the values used when the store has no row.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagKeepBoundaryLegs:    {Key: FlagKeepBoundaryLegs, Value: false, UpdatedAt: now},
		FlagDisableFlowCache:    {Key: FlagDisableFlowCache, Value: false, UpdatedAt: now},
		FlagDisableSaveEvents:   {Key: FlagDisableSaveEvents, Value: false, UpdatedAt: now},
		FlagFlowCacheTTLSeconds: {Key: FlagFlowCacheTTLSeconds, Value: float64(300), UpdatedAt: now},
	}
}
