package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ModeOther},
		{"   ", ModeOther},
		{"cab", ModeTaxi},
		{"Taxi", ModeTaxi},
		{"METRO", ModeSubway},
		{"subway", ModeSubway},
		{"on-foot", ModeWalk},
		{"On  Foot", ModeWalk},
		{"light_rail", ModeTram},
		{"xe-om", ModeMotorbike},
		{"BUS", ModeBus},
		{"cable car", "CABLE CAR"},
		{" gondola ", "GONDOLA"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMode(tt.in))
		})
	}
}
