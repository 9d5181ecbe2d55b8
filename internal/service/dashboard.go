package service

import (
	"context"

	"go.uber.org/zap"

	"tablepos/backend/internal/domain"
)

const (
	reportStatsKey    = "dashboard:stats"
	reportSalesKey    = "dashboard:sales-over-time"
	reportTopProducts = "dashboard:top-products"
	topProductsLimit  = 5
)

func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	return cachedReport(ctx, s, reportStatsKey, s.repo.DashboardStats)
}

func (s *Service) SalesOverTime(ctx context.Context) ([]domain.DailySales, error) {
	return cachedReport(ctx, s, reportSalesKey, s.repo.SalesOverTime)
}

func (s *Service) TopProducts(ctx context.Context) ([]domain.TopProduct, error) {
	return cachedReport(ctx, s, reportTopProducts, func(ctx context.Context) ([]domain.TopProduct, error) {
		return s.repo.TopProducts(ctx, topProductsLimit)
	})
}

// cachedReport serves a report from the cache, computing and storing it on
// a miss. Cache errors degrade to a direct read.
func cachedReport[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := s.reports.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	fresh, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.reports.Set(ctx, key, fresh, s.reportTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return fresh, nil
}

func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.reports.Delete(context.WithoutCancel(ctx), reportStatsKey, reportSalesKey, reportTopProducts); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}
