// Package openinghours turns a sight's opening-hour rules and closure
// exceptions into a renderable weekly schedule grouped by season, and
// answers whether the sight is open on a given date.
package openinghours

import (
	"errors"
	"strings"
	"time"
)

// ErrSightNotFound is returned when the sight does not exist.
var ErrSightNotFound = errors.New("sight not found")

// Weekday is a three-letter weekday tag as stored in rules.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

// DisplayOrder is the order weekdays are rendered in.
var DisplayOrder = []Weekday{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

var fromTimeWeekday = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// ParseWeekday accepts tags and full names in any case ("mon", "Monday").
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) >= 3 {
		w := Weekday(s[:3])
		if name, ok := weekdayNames[w]; ok && (len(s) == 3 || strings.EqualFold(s, name)) {
			return w, true
		}
	}
	return "", false
}

// WeekdayOf returns the tag for a date's weekday.
func WeekdayOf(t time.Time) Weekday {
	return fromTimeWeekday[t.Weekday()]
}

// Name returns the English weekday name.
func (w Weekday) Name() string {
	return weekdayNames[w]
}

// Rule is one opening-hour row. Unset season bounds default to Jan 1 and
// Dec 31. A rule with no days applies to every weekday that no other rule
// in its season names.
type Rule struct {
	ID            string    `json:"id,omitempty"`
	StartMonth    *int      `json:"startMonth,omitempty"`
	StartDay      *int      `json:"startDay,omitempty"`
	EndMonth      *int      `json:"endMonth,omitempty"`
	EndDay        *int      `json:"endDay,omitempty"`
	Days          []Weekday `json:"days"`
	Open          *string   `json:"open,omitempty"`
	Close         *string   `json:"close,omitempty"`
	LastEntryMins *int      `json:"lastEntryMins,omitempty"`
	IsClosed      bool      `json:"isClosed"`
}

// Exception is a closure outside the weekly grid. Set Weekday for a
// weekly closure, StartDate and EndDate for a range, or StartDate alone for
// a single date. Dates are YYYY-MM-DD. Kind is inferred from the fields
// when empty.
type Exception struct {
	ID        string      `json:"id,omitempty"`
	Kind      ClosureKind `json:"type,omitempty"`
	Weekday   *Weekday    `json:"weekday,omitempty"`
	StartDate *string     `json:"startDate,omitempty"`
	EndDate   *string     `json:"endDate,omitempty"`
	Note      *string     `json:"note,omitempty"`
}

// ClosureKind classifies an exception.
type ClosureKind string

const (
	ClosureWeekly ClosureKind = "weekly"
	ClosureRange  ClosureKind = "range"
	ClosureFixed  ClosureKind = "fixed"
)

// Valid reports whether k is one of the known kinds.
func (k ClosureKind) Valid() bool {
	return k == ClosureWeekly || k == ClosureRange || k == ClosureFixed
}

// Sight is the part of a sight row the resolver needs.
type Sight struct {
	ID          string
	OfficialURL *string
}

// Schedule is the renderable opening-hours view of a sight.
type Schedule struct {
	SightID     string    `json:"sightId"`
	Seasons     []Season  `json:"seasons"`
	Closures    []Closure `json:"closures"`
	OfficialURL *string   `json:"officialUrl,omitempty"`
}

// Season is one validity range with a row per weekday.
type Season struct {
	Key        string     `json:"key"`
	Label      string     `json:"label"`
	StartMonth int        `json:"startMonth"`
	StartDay   int        `json:"startDay"`
	EndMonth   int        `json:"endMonth"`
	EndDay     int        `json:"endDay"`
	Days       []DayHours `json:"days"`
}

// DayHours is one weekday row of a season.
type DayHours struct {
	Day     Weekday `json:"day"`
	Name    string  `json:"name"`
	Open    *string `json:"open,omitempty"`
	Close   *string `json:"close,omitempty"`
	Closed  bool    `json:"closed"`
	Display string  `json:"display"`

	// LastEntryMins is how many minutes before closing the last admission is.
	LastEntryMins *int `json:"lastEntryMins,omitempty"`
}

// Closure is a rendered exception.
type Closure struct {
	Kind      ClosureKind `json:"kind"`
	Weekday   *Weekday    `json:"weekday,omitempty"`
	StartDate *string     `json:"startDate,omitempty"`
	EndDate   *string     `json:"endDate,omitempty"`
	Note      *string     `json:"note,omitempty"`
	Display   string      `json:"display"`
}

// StatusSource says what decided a DayStatus.
type StatusSource string

const (
	SourceException  StatusSource = "exception"
	SourceSeason     StatusSource = "season"
	SourceNoSchedule StatusSource = "no_schedule"
)

// DayStatus answers whether a sight is open on one date.
type DayStatus struct {
	Date    string       `json:"date"`
	Day     Weekday      `json:"day"`
	Open    bool         `json:"open"`
	Display string       `json:"display"`
	Source  StatusSource `json:"source"`
	Season  string       `json:"season,omitempty"`
	Closure *Closure     `json:"closure,omitempty"`
}
