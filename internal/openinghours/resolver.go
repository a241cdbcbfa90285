package openinghours

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	displayLayout = "2 Jan 2006"
	closedDisplay = "Closed"
)

type seasonBounds struct {
	sm, sd, em, ed int
}

func boundsOf(r Rule) seasonBounds {
	return seasonBounds{
		sm: valueOr(r.StartMonth, 1),
		sd: valueOr(r.StartDay, 1),
		em: valueOr(r.EndMonth, 12),
		ed: valueOr(r.EndDay, 31),
	}
}

func (b seasonBounds) key() string {
	return fmt.Sprintf("%02d-%02d_%02d-%02d", b.sm, b.sd, b.em, b.ed)
}

func (b seasonBounds) label() string {
	if b == (seasonBounds{1, 1, 12, 31}) {
		return "All year"
	}
	return fmt.Sprintf("%d %s – %d %s", b.sd, shortMonth(b.sm), b.ed, shortMonth(b.em))
}

// contains reports whether month/day falls in the season. Seasons whose end
// precedes their start wrap over the new year.
func (b seasonBounds) contains(month, day int) bool {
	md, start, end := month*100+day, b.sm*100+b.sd, b.em*100+b.ed
	if start <= end {
		return md >= start && md <= end
	}
	return md >= start || md <= end
}

type seasonGroup struct {
	bounds seasonBounds
	rules  []Rule
}

// groupRules buckets rules by season in order of first appearance.
func groupRules(rules []Rule) []*seasonGroup {
	var groups []*seasonGroup
	index := make(map[seasonBounds]*seasonGroup)
	for _, r := range rules {
		b := boundsOf(r)
		g, ok := index[b]
		if !ok {
			g = &seasonGroup{bounds: b}
			index[b] = g
			groups = append(groups, g)
		}
		g.rules = append(g.rules, r)
	}
	return groups
}

// ruleFor picks the rule for day: the first rule naming the day, else the
// first wildcard rule, else nil.
func (g *seasonGroup) ruleFor(day Weekday) *Rule {
	for i := range g.rules {
		for _, d := range g.rules[i].Days {
			if d == day {
				return &g.rules[i]
			}
		}
	}
	for i := range g.rules {
		if len(g.rules[i].Days) == 0 {
			return &g.rules[i]
		}
	}
	return nil
}

func (g *seasonGroup) hours(day Weekday) DayHours {
	row := DayHours{Day: day, Name: day.Name(), Closed: true, Display: closedDisplay}

	r := g.ruleFor(day)
	if r == nil || r.IsClosed {
		return row
	}
	open, close := clockTime(r.Open), clockTime(r.Close)
	if open == "" || close == "" {
		return row
	}

	row.Open, row.Close = &open, &close
	row.Closed = false
	row.Display = open + "–" + close
	row.LastEntryMins = r.LastEntryMins
	return row
}

// Resolve builds the schedule view. Rules keep their authored order within
// a season; exceptions are listed, not merged into the grid.
func Resolve(sightID string, rules []Rule, exceptions []Exception, officialURL *string) Schedule {
	s := Schedule{
		SightID:     sightID,
		Seasons:     []Season{},
		Closures:    make([]Closure, 0, len(exceptions)),
		OfficialURL: officialURL,
	}

	for _, g := range groupRules(rules) {
		season := Season{
			Key:        g.bounds.key(),
			Label:      g.bounds.label(),
			StartMonth: g.bounds.sm,
			StartDay:   g.bounds.sd,
			EndMonth:   g.bounds.em,
			EndDay:     g.bounds.ed,
			Days:       make([]DayHours, 0, len(DisplayOrder)),
		}
		for _, day := range DisplayOrder {
			season.Days = append(season.Days, g.hours(day))
		}
		s.Seasons = append(s.Seasons, season)
	}

	for _, e := range exceptions {
		s.Closures = append(s.Closures, closureOf(e))
	}
	return s
}

// Classify reports the exception's kind: the authored kind when its fields
// support it, else the kind the fields describe.
func (e Exception) Classify() ClosureKind {
	switch e.Kind {
	case ClosureWeekly:
		if e.Weekday != nil && *e.Weekday != "" {
			return ClosureWeekly
		}
	case ClosureRange:
		if e.StartDate != nil && e.EndDate != nil {
			return ClosureRange
		}
	case ClosureFixed:
		if e.StartDate != nil || e.EndDate != nil {
			return ClosureFixed
		}
	}
	switch {
	case e.Weekday != nil && *e.Weekday != "":
		return ClosureWeekly
	case e.StartDate != nil && e.EndDate != nil && *e.EndDate != *e.StartDate:
		return ClosureRange
	}
	return ClosureFixed
}

func closureOf(e Exception) Closure {
	c := Closure{
		Kind:      e.Classify(),
		Weekday:   e.Weekday,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Note:      e.Note,
	}
	switch c.Kind {
	case ClosureWeekly:
		c.Display = "Closed every " + e.Weekday.Name()
	case ClosureRange:
		c.Display = fmt.Sprintf("Closed from %s to %s", displayDate(*e.StartDate), displayDate(*e.EndDate))
	default:
		date := e.StartDate
		if date == nil {
			date = e.EndDate
		}
		if date == nil {
			c.Display = closedDisplay
		} else {
			c.Display = "Closed on " + displayDate(*date)
		}
	}
	return c
}

// matches reports whether the closure applies on date.
func (c Closure) matches(date time.Time) bool {
	day := date.Format(dateLayout)
	switch c.Kind {
	case ClosureWeekly:
		return c.Weekday != nil && *c.Weekday == WeekdayOf(date)
	case ClosureRange:
		return c.StartDate != nil && c.EndDate != nil && day >= *c.StartDate && day <= *c.EndDate
	default:
		if c.StartDate != nil {
			return *c.StartDate == day
		}
		return c.EndDate != nil && *c.EndDate == day
	}
}

func (s Season) bounds() seasonBounds {
	return seasonBounds{sm: s.StartMonth, sd: s.StartDay, em: s.EndMonth, ed: s.EndDay}
}

// StatusOn answers whether the sight is open on date. Closures win over the
// weekly grid; otherwise the first season containing the date decides
// through its row for that weekday.
func (s Schedule) StatusOn(date time.Time) DayStatus {
	st := DayStatus{Date: date.Format(dateLayout), Day: WeekdayOf(date)}

	for i := range s.Closures {
		if s.Closures[i].matches(date) {
			c := s.Closures[i]
			st.Source = SourceException
			st.Closure = &c
			st.Display = closedDisplay
			return st
		}
	}

	for _, season := range s.Seasons {
		if !season.bounds().contains(int(date.Month()), date.Day()) {
			continue
		}
		st.Source = SourceSeason
		st.Season = season.Key
		st.Display = closedDisplay
		for _, row := range season.Days {
			if row.Day == st.Day {
				st.Open = !row.Closed
				st.Display = row.Display
				break
			}
		}
		return st
	}

	st.Source = SourceNoSchedule
	st.Display = "Hours not available"
	return st
}

// clockTime trims a stored time to HH:MM. Blank input yields "".
func clockTime(s *string) string {
	if s == nil {
		return ""
	}
	t := strings.TrimSpace(*s)
	if len(t) > 5 && t[5] == ':' {
		t = t[:5]
	}
	return t
}

func displayDate(s string) string {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return s
	}
	return t.Format(displayLayout)
}

func shortMonth(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("month %d", m)
	}
	return time.Month(m).String()[:3]
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
