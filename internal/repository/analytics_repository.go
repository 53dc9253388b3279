package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/database"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

// GateCounts counts customers past each verification gate.
type GateCounts struct {
	SalesVerified    int64 `json:"sales_verified"`
	AccountsVerified int64 `json:"accounts_verified"`
	RTOVerified      int64 `json:"rto_verified"`
}

// Revenue aggregates pricing and payments across all customers.
type Revenue struct {
	TotalPrice  decimal.Decimal `json:"total_price"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// SalesPerformance is one sales employee's customer count.
type SalesPerformance struct {
	EmployeeID   int64           `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Customers    int64           `json:"customers"`
	Delivered    int64           `json:"delivered"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// AnalyticsRepository runs the read-only admin projections.
type AnalyticsRepository struct {
	db *database.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// StatusCounts counts customers per status.
func (r *AnalyticsRepository) StatusCounts(ctx context.Context) (map[Status]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM customers GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to count statuses")
	}
	defer rows.Close()

	counts := map[Status]int64{
		StatusPending: 0, StatusSubmitted: 0, StatusVerified: 0, StatusDelivered: 0,
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan status count")
		}
		counts[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to count statuses")
	}
	return counts, nil
}

// GateCounts counts customers past each verification gate.
func (r *AnalyticsRepository) GateCounts(ctx context.Context) (*GateCounts, error) {
	g := &GateCounts{}
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE sales_verified),
		       COUNT(*) FILTER (WHERE accounts_verified),
		       COUNT(*) FILTER (WHERE rto_verified)
		FROM customers`,
	).Scan(&g.SalesVerified, &g.AccountsVerified, &g.RTOVerified)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to count gates")
	}
	return g, nil
}

// Revenue sums billed and collected amounts.
func (r *AnalyticsRepository) Revenue(ctx context.Context) (*Revenue, error) {
	rev := &Revenue{}
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_price), 0), COALESCE(SUM(amount_paid), 0) FROM customers`,
	).Scan(&rev.TotalPrice, &rev.AmountPaid)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to sum revenue")
	}
	rev.Outstanding = rev.TotalPrice.Sub(rev.AmountPaid)
	return rev, nil
}

// SalesPerformance lists every sales employee with their customer totals.
func (r *AnalyticsRepository) SalesPerformance(ctx context.Context) ([]*SalesPerformance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.name, COUNT(c.id),
		       COUNT(c.id) FILTER (WHERE c.status = 'Delivered'),
		       COALESCE(SUM(c.total_price), 0)
		FROM employees e
		LEFT JOIN customers c ON c.created_by = e.id
		WHERE e.role = 'sales'
		GROUP BY e.id, e.name
		ORDER BY COUNT(c.id) DESC, e.name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to load sales performance")
	}
	defer rows.Close()

	out := make([]*SalesPerformance, 0)
	for rows.Next() {
		p := &SalesPerformance{}
		if err := rows.Scan(&p.EmployeeID, &p.EmployeeName, &p.Customers, &p.Delivered, &p.TotalPrice); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan sales performance")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to load sales performance")
	}
	return out, nil
}
