package missingparts

import (
	"context"

	"brick-manager/core/idfilter"
	"brick-manager/core/logger"
	"brick-manager/feature/missingparts/models"

	"go.uber.org/zap"
)

// Query is a caller's request for missing parts.
type Query struct {
	// IDs is a raw user set id filter such as "200-210;229".
	IDs             string
	IncludeSpares   bool
	Category        *int
	ExcludeStatuses []string
}

// Service loads collection records and aggregates them.
type Service struct {
	store      CollectionStore
	aggregator *Aggregator
	logger     *zap.Logger
}

// NewService creates a new missing parts service.
func NewService(store CollectionStore, aggregator *Aggregator, l *zap.Logger) *Service {
	return &Service{
		store:      store,
		aggregator: aggregator,
		logger:     logger.OrNop(l),
	}
}

// MissingParts returns the missing parts matching q.
func (s *Service) MissingParts(ctx context.Context, q Query) (*models.Result, error) {
	return s.missingParts(ctx, s.logger, q)
}

func (s *Service) missingParts(ctx context.Context, l *zap.Logger, q Query) (*models.Result, error) {
	filter := s.parseFilter(l, q.IDs)

	records, err := s.records(ctx, q)
	if err != nil {
		return nil, err
	}

	return s.aggregator.Aggregate(ctx, records, filter, Options{
		IncludeSpares: q.IncludeSpares,
		Category:      q.Category,
	})
}

// Summary returns collection totals for the user sets matching q.
// IncludeSpares and Category are ignored.
func (s *Service) Summary(ctx context.Context, q Query) (models.Summary, error) {
	return s.summary(ctx, s.logger, q)
}

func (s *Service) summary(ctx context.Context, l *zap.Logger, q Query) (models.Summary, error) {
	filter := s.parseFilter(l, q.IDs)

	records, err := s.records(ctx, q)
	if err != nil {
		return models.Summary{}, err
	}
	return Summarize(records, filter), nil
}

func (s *Service) records(ctx context.Context, q Query) ([]models.OwnershipRecord, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Records(ctx, Scope{ExcludeStatuses: q.ExcludeStatuses})
}

func (s *Service) parseFilter(l *zap.Logger, raw string) idfilter.Filter {
	filter := idfilter.Parse(raw)
	if len(filter.Invalid) > 0 {
		l.Warn("Skipped invalid id filter tokens",
			zap.String("filter", raw),
			zap.Strings("tokens", filter.Invalid))
	}
	if filter.Degraded {
		l.Warn("Id filter has no valid token, showing all sets", zap.String("filter", raw))
	}
	return filter
}
