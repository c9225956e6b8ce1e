package report

import (
	"context"
	"log/slog"

	"mailmetrics/internal/domain"
)

// Service is the entire surface the presentation layer needs: the
// current result set (possibly cached) and forced invalidation.
type Service struct {
	query  *Query
	cache  *Cache
	load   LoadFunc
	logger *slog.Logger
}

// NewService wires the cache in front of the load pipeline.
func NewService(query *Query, cache *Cache, load LoadFunc, logger *slog.Logger) *Service {
	return &Service{query: query, cache: cache, load: load, logger: logger}
}

// Query returns the report query the service serves.
func (s *Service) Query() *Query { return s.query }

// Current returns the report data, from cache while fresh. On a cold or
// expired cache it runs one submit → poll → materialize cycle; the
// caller is stalled for its full duration.
func (s *Service) Current(ctx context.Context) (*domain.ResultSet, error) {
	return s.cache.Get(ctx, s.query.Signature(), s.load)
}

// Refresh drops every cache entry and loads fresh data, implementing the
// manual "refresh now" action.
func (s *Service) Refresh(ctx context.Context) (*domain.ResultSet, error) {
	s.logger.Info("manual refresh requested", "signature", s.query.Signature())
	s.cache.Invalidate()
	return s.Current(ctx)
}
