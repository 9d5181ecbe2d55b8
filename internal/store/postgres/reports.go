package postgres

import (
	"context"

	"tablepos/backend/internal/domain"
)

func (s *Store) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(total_cents), 0),
			COUNT(*),
			COALESCE((
				SELECT SUM(si.quantity)
				FROM sale_items si
				JOIN sales s2 ON s2.id = si.sale_id
				WHERE s2.status = 'COMPLETED'
			), 0)
		FROM sales
		WHERE status = 'COMPLETED'
	`).Scan(&stats.RevenueCents, &stats.CompletedSales, &stats.TotalProductsSold)
	return stats, err
}

func (s *Store) SalesOverTime(ctx context.Context) ([]domain.DailySales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(completed_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			SUM(total_cents), COUNT(*)
		FROM sales
		WHERE status = 'COMPLETED' AND completed_at IS NOT NULL
		GROUP BY day
		ORDER BY day
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]domain.DailySales, 0, 31)
	for rows.Next() {
		var day domain.DailySales
		if err := rows.Scan(&day.Date, &day.TotalCents, &day.Sales); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	if limit < 1 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT si.product_id, COALESCE(p.name, MAX(si.product_name)),
			SUM(si.quantity), COUNT(DISTINCT si.sale_id)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		LEFT JOIN products p ON p.id = si.product_id
		WHERE s.status = 'COMPLETED'
		GROUP BY si.product_id, p.name
		ORDER BY SUM(si.quantity) DESC, 2
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.TopProduct, 0, limit)
	for rows.Next() {
		var p domain.TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.QuantitySold, &p.SaleCount); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
