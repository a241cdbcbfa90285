package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration
	DefaultFlags map[string]*Flag
}

// Service evaluates flags with an in-process cache and falls back to the
// defaults when the store is unavailable.
type Service struct {
	repo         Repository
	logger       zerolog.Logger
	cacheTTL     time.Duration
	defaultFlags map[string]*Flag

	mu          sync.RWMutex
	cache       map[string]*Flag
	cacheExpiry time.Time
}

// NewService creates a feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}

	defaultFlags := cfg.DefaultFlags
	if defaultFlags == nil {
		defaultFlags = DefaultFlags()
	}

	return &Service{
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		defaultFlags: defaultFlags,
		cache:        make(map[string]*Flag),
	}
}

// GetFlag returns the flag for key: cached, stored, or default. It returns
// nil for a key that exists nowhere.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag := s.getCached(key); flag != nil {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	if err == nil {
		s.setCached(key, flag)
		return flag
	}
	if !errors.Is(err, ErrFlagNotFound) {
		s.logger.Warn().Err(err).Str("flag", key).Msg("failed to get feature flag from repository")
	}

	return s.defaultFlags[key]
}

// GetAllFlags returns stored flags merged over the defaults.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	result := make(map[string]*Flag, len(s.defaultFlags))
	for k, v := range s.defaultFlags {
		result[k] = v
	}

	flags, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get feature flags from repository, using defaults")
		return result
	}
	for k, v := range flags {
		result[k] = v
	}

	s.mu.Lock()
	s.cache = flags
	s.cacheExpiry = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return result
}

// Apply validates and stores a batch of updates. Only known keys are
// accepted and each value must match the type of its default.
func (s *Service) Apply(ctx context.Context, req FlagUpdateRequest) ([]*Flag, error) {
	flags := make([]*Flag, 0, len(req.Updates))
	for _, u := range req.Updates {
		def, ok := s.defaultFlags[u.Key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFlag, u.Key)
		}
		if !sameKind(def.Value, u.Value) {
			return nil, fmt.Errorf("%w: %s expects %T", ErrInvalidFlagValue, u.Key, def.Value)
		}
		flags = append(flags, &Flag{Key: u.Key, Value: u.Value})
	}

	if err := s.SetFlags(ctx, flags); err != nil {
		return nil, err
	}
	s.logger.Info().
		Int("count", len(flags)).
		Str("reason", req.Reason).
		Msg("feature flags updated")
	return flags, nil
}

// SetFlags stores flags and refreshes the cache.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := time.Now()
	for _, flag := range flags {
		flag.UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	for _, flag := range flags {
		s.setCached(flag.Key, flag)
	}
	return nil
}

// InvalidateCache forces the next read to hit the repository.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.cacheExpiry = time.Time{}
}

// IsEnabled reports whether a boolean flag is on.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

func (s *Service) getCached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if time.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.cache[key]
}

func (s *Service) setCached(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = flag
	if s.cacheExpiry.Before(time.Now()) {
		s.cacheExpiry = time.Now().Add(s.cacheTTL)
	}
}

func sameKind(def, v interface{}) bool {
	switch def.(type) {
	case bool:
		_, ok := v.(bool)
		return ok
	case float64, int:
		switch v.(type) {
		case float64, int:
			return true
		}
		return false
	}
	return true
}

// KeepBoundaryLegs reports whether boundary legs are linked as self-edges.
func (s *Service) KeepBoundaryLegs(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagKeepBoundaryLegs)
}

// FlowCacheDisabled reports whether the flow cache is bypassed.
func (s *Service) FlowCacheDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableFlowCache)
}

// EventPublishingDisabled reports whether save events are suppressed.
func (s *Service) EventPublishingDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableSaveEvents)
}

// FlowCacheTTL returns the lifetime of cached flows.
func (s *Service) FlowCacheTTL(ctx context.Context) time.Duration {
	secs := s.GetFlag(ctx, FlagFlowCacheTTLSeconds).IntValue(300)
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
