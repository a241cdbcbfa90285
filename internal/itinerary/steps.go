package itinerary

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StepsPayload is the value of a leg's steps column. Besides the step list
// it carries side-channel metadata (maps link, free-text details, the mode
// as authored) so the column can grow without a schema change.
//
// Stored form: {"steps":[...],"maps_url":"...","details":"...","mode":"..."}.
// Rows written before the side-channel existed hold a bare step array.
type StepsPayload struct {
	Steps   []Step
	MapsURL *string
	Details *string
	Mode    *string
}

type stepsEnvelope struct {
	Steps   []Step  `json:"steps"`
	MapsURL *string `json:"maps_url,omitempty"`
	Details *string `json:"details,omitempty"`
	Mode    *string `json:"mode,omitempty"`
}

// MarshalJSON writes the envelope form.
func (p StepsPayload) MarshalJSON() ([]byte, error) {
	steps := p.Steps
	if steps == nil {
		steps = []Step{}
	}
	return json.Marshal(stepsEnvelope{
		Steps:   steps,
		MapsURL: p.MapsURL,
		Details: p.Details,
		Mode:    p.Mode,
	})
}

// UnmarshalJSON accepts the envelope, a bare step array, or null.
func (p *StepsPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*p = StepsPayload{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		if err := json.Unmarshal(data, &p.Steps); err != nil {
			return fmt.Errorf("decoding step list: %w", err)
		}
		return nil
	}

	var env stepsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding steps envelope: %w", err)
	}
	p.Steps = env.Steps
	p.MapsURL = env.MapsURL
	p.Details = env.Details
	p.Mode = env.Mode
	return nil
}

// packSteps folds a draft's side-channel values into the steps column.
// Values are stored verbatim so UnpackLeg reproduces them exactly. Details
// keeps an explicit empty string: it means "cleared", not "unset".
func packSteps(d LegDraft) StepsPayload {
	return StepsPayload{
		Steps:   d.Steps,
		MapsURL: nonEmpty(d.MapsURL),
		Details: clone(d.Details),
		Mode:    nonEmpty(&d.Mode),
	}
}

// UnpackLeg turns a persisted leg back into an editable draft. Side-channel
// values win; mode falls back to primary_mode and details to summary when
// the envelope has no details key at all.
func UnpackLeg(l TransportLeg) LegDraft {
	d := LegDraft{
		Mode:     l.PrimaryMode,
		Title:    deref(l.Title),
		Summary:  deref(l.Summary),
		Notes:    deref(l.Notes),
		Steps:    l.Steps.Steps,
		MapsURL:  l.Steps.MapsURL,
		Details:  l.Steps.Details,
		Currency: deref(l.Currency),
	}
	if l.Steps.Mode != nil {
		d.Mode = *l.Steps.Mode
	}
	if d.Details == nil {
		d.Details = l.Summary
	}
	if l.SortOrder != nil {
		d.SortOrder = *l.SortOrder
	}
	d.DurationMin = intToFloat(l.EstDurationMin)
	d.DistanceM = intToFloat(l.EstDistanceM)
	d.CostMin = l.EstCostMin
	d.CostMax = l.EstCostMax
	return d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
