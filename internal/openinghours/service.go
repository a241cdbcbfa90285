package openinghours

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/validate"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)

// ServiceConfig holds configuration for the opening-hours service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// NewID defaults to random UUIDs.
	NewID func() string
}

// Service reads and replaces sight opening hours.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	newID  func() string
}

// NewService creates a new opening-hours service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{repo: cfg.Repository, logger: cfg.Logger, newID: cfg.NewID}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// GetSchedule resolves the sight's rules and exceptions into a schedule.
func (s *Service) GetSchedule(ctx context.Context, sightID string) (*Schedule, error) {
	sight, err := s.repo.GetSight(ctx, sightID)
	if err != nil {
		return nil, err
	}
	rules, err := s.repo.ListRules(ctx, sightID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.repo.ListExceptions(ctx, sightID)
	if err != nil {
		return nil, err
	}

	schedule := Resolve(sightID, rules, exceptions, sight.OfficialURL)
	return &schedule, nil
}

// StatusOn reports whether the sight is open on date.
func (s *Service) StatusOn(ctx context.Context, sightID string, date time.Time) (*DayStatus, error) {
	schedule, err := s.GetSchedule(ctx, sightID)
	if err != nil {
		return nil, err
	}
	status := schedule.StatusOn(date)
	return &status, nil
}

// ReplaceRequest is the full authored opening-hours content of a sight.
type ReplaceRequest struct {
	Rules      []Rule
	Exceptions []Exception
}

// Validate returns *validate.Error when the request is rejected.
func (r ReplaceRequest) Validate() error {
	var v validate.Collector

	for i, rule := range r.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		checkBound(&v, field+".startMonth", rule.StartMonth, 12)
		checkBound(&v, field+".startDay", rule.StartDay, 31)
		checkBound(&v, field+".endMonth", rule.EndMonth, 12)
		checkBound(&v, field+".endDay", rule.EndDay, 31)
		for j, d := range rule.Days {
			if d.Name() == "" {
				v.Add(fmt.Sprintf("%s.days[%d]", field, j), validate.CodeInvalid, "unknown weekday %q", d)
			}
		}
		if rule.IsClosed {
			continue
		}
		if rule.LastEntryMins != nil && *rule.LastEntryMins < 0 {
			v.Add(field+".lastEntryMins", validate.CodeOutOfRange, "lastEntryMins must not be negative")
		}
		checkClock(&v, field+".open", rule.Open)
		checkClock(&v, field+".close", rule.Close)
	}

	for i, e := range r.Exceptions {
		field := fmt.Sprintf("exceptions[%d]", i)
		if e.Kind != "" && !e.Kind.Valid() {
			v.Add(field+".type", validate.CodeInvalid, "type must be fixed, range or weekly")
		}
		if e.Weekday != nil && e.Weekday.Name() == "" {
			v.Add(field+".weekday", validate.CodeInvalid, "unknown weekday %q", *e.Weekday)
		}
		start := checkDate(&v, field+".startDate", e.StartDate)
		end := checkDate(&v, field+".endDate", e.EndDate)
		if e.Weekday == nil && e.StartDate == nil && e.EndDate == nil {
			v.Add(field, validate.CodeRequired, "an exception needs a weekday or a date")
		}
		if start != nil && end != nil && end.Before(*start) {
			v.Add(field+".endDate", validate.CodeOutOfRange, "endDate must not precede startDate")
		}
	}

	return v.Err()
}

// Replace validates and stores the sight's rules and exceptions. Rules and
// exceptions get fresh ids.
func (s *Service) Replace(ctx context.Context, sightID string, req ReplaceRequest) (*Schedule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sight, err := s.repo.GetSight(ctx, sightID)
	if err != nil {
		return nil, err
	}

	rules := make([]Rule, len(req.Rules))
	for i, rule := range req.Rules {
		rule.ID = s.newID()
		rules[i] = rule
	}
	exceptions := make([]Exception, len(req.Exceptions))
	for i, e := range req.Exceptions {
		e.ID = s.newID()
		exceptions[i] = e
	}

	if err := s.repo.ReplaceAll(ctx, sightID, rules, exceptions); err != nil {
		return nil, fmt.Errorf("replace opening hours of %s: %w", sightID, err)
	}

	s.logger.Info().
		Str("sight_id", sightID).
		Int("rules", len(rules)).
		Int("exceptions", len(exceptions)).
		Msg("opening hours replaced")

	schedule := Resolve(sightID, rules, exceptions, sight.OfficialURL)
	return &schedule, nil
}

func checkBound(v *validate.Collector, field string, value *int, max int) {
	if value != nil && (*value < 1 || *value > max) {
		v.Add(field, validate.CodeOutOfRange, "must be between 1 and %d", max)
	}
}

func checkClock(v *validate.Collector, field string, value *string) {
	if value != nil && !clockPattern.MatchString(*value) {
		v.Add(field, validate.CodeInvalid, "must be a time in HH:MM format")
	}
}

func checkDate(v *validate.Collector, field string, value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		v.Add(field, validate.CodeInvalid, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}
