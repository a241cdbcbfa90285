package featureflags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer/wayfarer/internal/featureflags"
)

func newService(repo featureflags.Repository) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Minute,
	})
}

type failingRepo struct {
	featureflags.InMemoryRepository
}

func (*failingRepo) GetFlag(context.Context, string) (*featureflags.Flag, error) {
	return nil, errors.New("connection refused")
}

func (*failingRepo) GetAllFlags(context.Context) (map[string]*featureflags.Flag, error) {
	return nil, errors.New("connection refused")
}

func TestService_Defaults(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository())
	ctx := context.Background()

	assert.False(t, service.KeepBoundaryLegs(ctx))
	assert.False(t, service.FlowCacheDisabled(ctx))
	assert.False(t, service.EventPublishingDisabled(ctx))
	assert.Equal(t, 5*time.Minute, service.FlowCacheTTL(ctx))
}

func TestService_FallsBackToDefaultsWhenStoreFails(t *testing.T) {
	service := newService(&failingRepo{})
	ctx := context.Background()

	flag := service.GetFlag(ctx, featureflags.FlagFlowCacheTTLSeconds)
	require.NotNil(t, flag)
	assert.Equal(t, 300, flag.IntValue(0))

	all := service.GetAllFlags(ctx)
	assert.Len(t, all, len(featureflags.DefaultFlags()))
}

func TestService_UnknownKeyIsNil(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepositoryWithFlags(nil))
	assert.Nil(t, service.GetFlag(context.Background(), "nope"))
	assert.False(t, service.IsEnabled(context.Background(), "nope"))
}

func TestService_Apply(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo)
	ctx := context.Background()

	flags, err := service.Apply(ctx, featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{
			{Key: featureflags.FlagKeepBoundaryLegs, Value: true},
			{Key: featureflags.FlagFlowCacheTTLSeconds, Value: float64(60)},
		},
		Reason: "legacy excursions",
	})
	require.NoError(t, err)
	assert.Len(t, flags, 2)

	assert.True(t, service.KeepBoundaryLegs(ctx))
	assert.Equal(t, time.Minute, service.FlowCacheTTL(ctx))

	stored, err := repo.GetFlag(ctx, featureflags.FlagKeepBoundaryLegs)
	require.NoError(t, err)
	assert.Equal(t, true, stored.Value)
}

func TestService_ApplyRejectsBadUpdates(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository())
	ctx := context.Background()

	_, err := service.Apply(ctx, featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{{Key: "unknown", Value: true}},
	})
	assert.ErrorIs(t, err, featureflags.ErrUnknownFlag)

	_, err = service.Apply(ctx, featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{
			{Key: featureflags.FlagDisableFlowCache, Value: true},
			{Key: featureflags.FlagKeepBoundaryLegs, Value: "yes"},
		},
	})
	assert.ErrorIs(t, err, featureflags.ErrInvalidFlagValue)

	// nothing from the rejected batch was stored
	assert.False(t, service.FlowCacheDisabled(ctx))
}

func TestService_InvalidateCache(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Hour,
	})
	ctx := context.Background()

	assert.False(t, service.FlowCacheDisabled(ctx))

	require.NoError(t, repo.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableFlowCache, Value: true}))
	assert.False(t, service.FlowCacheDisabled(ctx), "cached value is served until invalidated")

	service.InvalidateCache()
	assert.True(t, service.FlowCacheDisabled(ctx))
}

func TestFlag_ValueHelpers(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		wantBool bool
		wantInt  int
	}{
		{name: "bool true", value: true, wantBool: true, wantInt: 7},
		{name: "bool false", value: false, wantBool: false, wantInt: 7},
		{name: "json number", value: float64(120), wantBool: true, wantInt: 120},
		{name: "zero", value: float64(0), wantBool: false, wantInt: 0},
		{name: "int", value: 3, wantBool: false, wantInt: 3},
		{name: "string", value: "on", wantBool: false, wantInt: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := &featureflags.Flag{Key: "k", Value: tt.value}
			assert.Equal(t, tt.wantBool, flag.BoolValue(false))
			assert.Equal(t, tt.wantInt, flag.IntValue(7))
		})
	}

	var nilFlag *featureflags.Flag
	assert.True(t, nilFlag.BoolValue(true))
	assert.Equal(t, 42, nilFlag.IntValue(42))
}

func TestInMemoryRepository_DeleteFlag(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.DeleteFlag(ctx, featureflags.FlagKeepBoundaryLegs))

	_, err := repo.GetFlag(ctx, featureflags.FlagKeepBoundaryLegs)
	assert.ErrorIs(t, err, featureflags.ErrFlagNotFound)

	assert.ErrorIs(t, repo.DeleteFlag(ctx, "nonexistent"), featureflags.ErrFlagNotFound)
}
