package itinerary

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func TestStepsPayload_RoundTrip(t *testing.T) {
	draft := LegDraft{
		Mode:    "cab",
		Summary: "Short ride",
		Steps: []Step{
			{Mode: "WALK", Instruction: "Walk to the rank", DurationMin: intPtr(3)},
			{Mode: "TAXI", From: "Old Quarter", To: "Temple", DistanceM: intPtr(2400)},
		},
		MapsURL:   strPtr("https://maps.example.com/?q=temple"),
		Details:   strPtr("  Ask for the meter  "),
		SortOrder: 15,
	}

	leg := buildLeg("it-1", draft)
	assert.Equal(t, ModeTaxi, leg.PrimaryMode)

	raw, err := json.Marshal(leg.Steps)
	require.NoError(t, err)

	var stored TransportLeg
	stored.PrimaryMode = leg.PrimaryMode
	stored.Summary = leg.Summary
	require.NoError(t, json.Unmarshal(raw, &stored.Steps))

	back := UnpackLeg(stored)
	assert.Equal(t, draft.MapsURL, back.MapsURL)
	assert.Equal(t, draft.Details, back.Details)
	assert.Equal(t, "cab", back.Mode)
	assert.Equal(t, draft.Steps, back.Steps)
}

func TestStepsPayload_EnvelopeShape(t *testing.T) {
	raw, err := json.Marshal(StepsPayload{MapsURL: strPtr("https://m")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":[],"maps_url":"https://m"}`, string(raw))
}

func TestStepsPayload_LegacyArray(t *testing.T) {
	var p StepsPayload
	require.NoError(t, json.Unmarshal([]byte(`[{"mode":"BUS","line":"86"}]`), &p))

	assert.Equal(t, []Step{{Mode: "BUS", Line: "86"}}, p.Steps)
	assert.Nil(t, p.MapsURL)
	assert.Nil(t, p.Mode)
}

func TestStepsPayload_Null(t *testing.T) {
	var p StepsPayload
	require.NoError(t, json.Unmarshal([]byte(`null`), &p))
	assert.Empty(t, p.Steps)
}

func TestUnpackLeg_FallsBackToColumns(t *testing.T) {
	leg := TransportLeg{
		PrimaryMode:    ModeFerry,
		Summary:        strPtr("Public ferry"),
		EstDurationMin: intPtr(40),
		EstDistanceM:   intPtr(12000),
		SortOrder:      intPtr(25),
	}

	d := UnpackLeg(leg)
	assert.Equal(t, ModeFerry, d.Mode)
	require.NotNil(t, d.Details)
	assert.Equal(t, "Public ferry", *d.Details)
	assert.Equal(t, 25, d.SortOrder)
	assert.Equal(t, floatPtr(40), d.DurationMin)
	assert.Equal(t, floatPtr(12000), d.DistanceM)
}

func TestUnpackLeg_KeepsClearedDetails(t *testing.T) {
	draft := LegDraft{Mode: "walk", Summary: "Along the river", Details: strPtr(""), SortOrder: 5}
	leg := buildLeg("it-1", draft)

	raw, err := json.Marshal(leg.Steps)
	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":[],"details":"","mode":"walk"}`, string(raw))

	var stored TransportLeg
	stored.PrimaryMode = leg.PrimaryMode
	stored.Summary = leg.Summary
	require.NoError(t, json.Unmarshal(raw, &stored.Steps))

	back := UnpackLeg(stored)
	require.NotNil(t, back.Details)
	assert.Equal(t, "", *back.Details)
}
