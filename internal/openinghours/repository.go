package openinghours

import "context"

// Repository persists opening-hour rules and closure exceptions per sight.
type Repository interface {
	// GetSight returns the sight or ErrSightNotFound.
	GetSight(ctx context.Context, sightID string) (*Sight, error)

	// ListRules returns the sight's rules in authored order.
	ListRules(ctx context.Context, sightID string) ([]Rule, error)

	// ListExceptions returns the sight's exceptions in authored order.
	ListExceptions(ctx context.Context, sightID string) ([]Exception, error)

	// ReplaceAll swaps every rule and exception of the sight atomically.
	ReplaceAll(ctx context.Context, sightID string, rules []Rule, exceptions []Exception) error
}
