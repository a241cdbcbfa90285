package itinerary

import (
	"math"
	"strings"
)

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f := *v
	return &f
}

func roundedInt(v *float64) *int {
	f := finite(v)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

// distanceMeters prefers an explicit meter value and falls back to km.
func distanceMeters(meters, km *float64) *int {
	if m := roundedInt(meters); m != nil {
		return m
	}
	k := finite(km)
	if k == nil {
		return nil
	}
	m := *k * 1000
	return roundedInt(&m)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func optional(s string) *string {
	return nonBlank(&s)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
