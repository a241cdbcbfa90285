package admission

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/currency"

	"github.com/wayfarer/wayfarer/internal/validate"
)

// ServiceConfig holds configuration for the admission service.
type ServiceConfig struct {
	Repository Repository
	Normalizer Normalizer
	Logger     zerolog.Logger

	// NewID defaults to random UUIDs.
	NewID func() string
}

// Service reads and replaces admission prices.
type Service struct {
	repo       Repository
	normalizer Normalizer
	logger     zerolog.Logger
	newID      func() string
}

// NewService creates a new admission service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:       cfg.Repository,
		normalizer: cfg.Normalizer,
		logger:     cfg.Logger,
		newID:      cfg.NewID,
	}
	if s.normalizer.DefaultCurrency == "" {
		s.normalizer.DefaultCurrency = DefaultCurrency
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Get returns the sight's admission table.
func (s *Service) Get(ctx context.Context, sightID string) (*Table, error) {
	exists, err := s.repo.SightExists(ctx, sightID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSightNotFound
	}

	rows, err := s.repo.ListRows(ctx, sightID)
	if err != nil {
		return nil, err
	}
	return &Table{SightID: sightID, Groups: s.normalizer.Normalize(rows)}, nil
}

// Validate returns *validate.Error when rows are rejected.
func Validate(rows []Row) error {
	var v validate.Collector

	for i, r := range rows {
		field := fmt.Sprintf("rows[%d]", i)
		if strings.TrimSpace(r.Label) == "" {
			v.Add(field+".label", validate.CodeRequired, "label is required")
		}
		if r.MinAge != nil && *r.MinAge < 0 {
			v.Add(field+".minAge", validate.CodeOutOfRange, "minAge must not be negative")
		}
		if r.MinAge != nil && r.MaxAge != nil && *r.MinAge > *r.MaxAge {
			v.Add(field+".maxAge", validate.CodeOutOfRange, "maxAge must not be below minAge")
		}
		if r.Amount != nil && (math.IsNaN(*r.Amount) || math.IsInf(*r.Amount, 0) || *r.Amount < 0) {
			v.Add(field+".amount", validate.CodeOutOfRange, "amount must be a non-negative number")
		}
		if r.Currency != nil {
			if _, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(*r.Currency))); err != nil {
				v.Add(field+".currency", validate.CodeInvalid, "unknown currency %q", *r.Currency)
			}
		}
		from := checkDate(&v, field+".validFrom", r.ValidFrom)
		to := checkDate(&v, field+".validTo", r.ValidTo)
		if from != nil && to != nil && to.Before(*from) {
			v.Add(field+".validTo", validate.CodeOutOfRange, "validTo must not precede validFrom")
		}
	}

	return v.Err()
}

// Replace validates and stores the sight's rows. Rows get fresh ids.
func (s *Service) Replace(ctx context.Context, sightID string, rows []Row) (*Table, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}

	stored := make([]Row, len(rows))
	for i, r := range rows {
		r.ID = s.newID()
		if r.Currency != nil {
			code := strings.ToUpper(strings.TrimSpace(*r.Currency))
			r.Currency = &code
		}
		stored[i] = r
	}

	if err := s.repo.ReplaceAll(ctx, sightID, stored); err != nil {
		return nil, fmt.Errorf("replace admission of %s: %w", sightID, err)
	}

	s.logger.Info().
		Str("sight_id", sightID).
		Int("rows", len(stored)).
		Msg("admission replaced")

	return &Table{SightID: sightID, Groups: s.normalizer.Normalize(stored)}, nil
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
