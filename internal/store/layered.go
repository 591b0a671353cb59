package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/pitchprep/internal/types"
)

// LayeredContextStore puts a fast cache (Redis) in front of a durable store
// (Postgres). Reads fall through to the durable store and backfill the cache.
type LayeredContextStore struct {
	cache   EmployerContextStore
	durable EmployerContextStore
	logger  *zap.Logger
}

// NewLayeredContextStore combines cache and durable stores.
func NewLayeredContextStore(cache, durable EmployerContextStore, logger *zap.Logger) *LayeredContextStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayeredContextStore{cache: cache, durable: durable, logger: logger.Named("context_store")}
}

// Get implements EmployerContextStore. Cache failures are logged and skipped.
func (s *LayeredContextStore) Get(ctx context.Context, normalizedName string) (*types.EmployerContext, error) {
	c, err := s.cache.Get(ctx, normalizedName)
	if err != nil {
		s.logger.Warn("context cache read failed", zap.String("company", normalizedName), zap.Error(err))
	} else if c != nil {
		return c, nil
	}

	c, err = s.durable.Get(ctx, normalizedName)
	if err != nil || c == nil {
		return c, err
	}
	if err := s.cache.Put(ctx, *c); err != nil {
		s.logger.Warn("context cache backfill failed", zap.String("company", normalizedName), zap.Error(err))
	}
	return c, nil
}

// Put writes the durable store first, then the cache.
func (s *LayeredContextStore) Put(ctx context.Context, c types.EmployerContext) error {
	if err := s.durable.Put(ctx, c); err != nil {
		return err
	}
	if err := s.cache.Put(ctx, c); err != nil {
		s.logger.Warn("context cache write failed", zap.String("company", c.CompanyName), zap.Error(err))
	}
	return nil
}
