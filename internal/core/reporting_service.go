package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// SalesSummary is the total and count of paid bills in a window.
type SalesSummary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// TopProduct aggregates paid bill lines per product.
type TopProduct struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	TotalSold   int             `json:"total_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// RecentBill is the dashboard's compact bill row.
type RecentBill struct {
	ID           int             `json:"id"`
	BillNumber   string          `json:"bill_number"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TrendPoint is one day of paid sales.
type TrendPoint struct {
	Date   string          `json:"date"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

// Dashboard is the account's at-a-glance summary.
type Dashboard struct {
	TotalProducts    int          `json:"total_products"`
	LowStockProducts int          `json:"low_stock_products"`
	TodaysSales      SalesSummary `json:"todays_sales"`
	MonthlySales     SalesSummary `json:"monthly_sales"`
	TopProducts      []TopProduct `json:"top_products"`
	RecentBills      []RecentBill `json:"recent_bills"`
	SalesTrend       []TrendPoint `json:"sales_trend"`
}

// SalesReportRow is one period of the sales report.
type SalesReportRow struct {
	Period            string          `json:"period"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalOrders       int             `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// Sales report groupings.
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// periodFormats maps a grouping to its to_char pattern. Weeks are ISO weeks.
var periodFormats = map[string]string{
	GroupByDay:   "YYYY-MM-DD",
	GroupByWeek:  "IYYY-IW",
	GroupByMonth: "YYYY-MM",
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only analytics over bills and products.
// Sales figures only count paid bills.
type ReportingService interface {
	// GetDashboard returns catalog counts, today's and this month's sales, the five
	// best sellers by units, the five newest bills, and the last seven days of sales.
	GetDashboard(ctx context.Context, accountID int) (*Dashboard, error)

	// GetSalesReport groups paid sales by day, week, or month within [from, to).
	// Either bound may be nil. An empty groupBy means day.
	GetSalesReport(ctx context.Context, accountID int, from, to *time.Time, groupBy string) ([]SalesReportRow, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewReportingService constructs a ReportingService backed by the given pool.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool, now: time.Now}
}

// ── GetDashboard ──────────────────────────────────────────────────────────────

func (s *reportingService) GetDashboard(ctx context.Context, accountID int) (*Dashboard, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	d := &Dashboard{}

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE quantity <= min_stock_level)
		FROM products
		WHERE account_id = $1 AND is_active = true
	`, accountID).Scan(&d.TotalProducts, &d.LowStockProducts); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var err error
	if d.TodaysSales, err = s.paidSalesSince(ctx, accountID, startOfDay); err != nil {
		return nil, err
	}
	if d.MonthlySales, err = s.paidSalesSince(ctx, accountID, startOfMonth); err != nil {
		return nil, err
	}
	if d.TopProducts, err = s.topProducts(ctx, accountID, 5); err != nil {
		return nil, err
	}
	if d.RecentBills, err = s.recentBills(ctx, accountID, 5); err != nil {
		return nil, err
	}
	if d.SalesTrend, err = s.salesTrend(ctx, accountID, now.Add(-7*24*time.Hour)); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *reportingService) paidSalesSince(ctx context.Context, accountID int, since time.Time) (SalesSummary, error) {
	var sum SalesSummary
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM bills
		WHERE account_id = $1 AND status = 'paid' AND created_at >= $2
	`, accountID, since).Scan(&sum.Total, &sum.Count)
	if err != nil {
		return sum, fmt.Errorf("failed to sum paid sales: %w", err)
	}
	return sum, nil
}

func (s *reportingService) topProducts(ctx context.Context, accountID, limit int) ([]TopProduct, error) {
	// The newest snapshot name wins when a product was renamed between bills.
	rows, err := s.pool.Query(ctx, `
		SELECT bi.product_id,
		       (ARRAY_AGG(bi.product_name ORDER BY b.id DESC))[1],
		       SUM(bi.quantity),
		       SUM(bi.total)
		FROM bill_items bi
		JOIN bills b ON b.id = bi.bill_id
		WHERE b.account_id = $1 AND b.status = 'paid'
		GROUP BY bi.product_id
		ORDER BY SUM(bi.quantity) DESC, bi.product_id
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	top := []TopProduct{}
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.TotalSold, &tp.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		top = append(top, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top products row iteration error: %w", err)
	}
	return top, nil
}

func (s *reportingService) recentBills(ctx context.Context, accountID, limit int) ([]RecentBill, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, bill_number, customer_name, total, status, created_at
		FROM bills
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent bills: %w", err)
	}
	defer rows.Close()

	recent := []RecentBill{}
	for rows.Next() {
		var rb RecentBill
		if err := rows.Scan(&rb.ID, &rb.BillNumber, &rb.CustomerName, &rb.Total, &rb.Status, &rb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent bill: %w", err)
		}
		recent = append(recent, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent bills row iteration error: %w", err)
	}
	return recent, nil
}

func (s *reportingService) salesTrend(ctx context.Context, accountID int, since time.Time) ([]TrendPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, SUM(total), COUNT(*)
		FROM bills
		WHERE account_id = $1 AND status = 'paid' AND created_at >= $2
		GROUP BY day
		ORDER BY day
	`, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales trend: %w", err)
	}
	defer rows.Close()

	trend := []TrendPoint{}
	for rows.Next() {
		var tp TrendPoint
		if err := rows.Scan(&tp.Date, &tp.Sales, &tp.Orders); err != nil {
			return nil, fmt.Errorf("failed to scan sales trend row: %w", err)
		}
		trend = append(trend, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales trend row iteration error: %w", err)
	}
	return trend, nil
}

// ── GetSalesReport ────────────────────────────────────────────────────────────

func (s *reportingService) GetSalesReport(ctx context.Context, accountID int, from, to *time.Time, groupBy string) ([]SalesReportRow, error) {
	if groupBy == "" {
		groupBy = GroupByDay
	}
	format, ok := periodFormats[groupBy]
	if !ok {
		return nil, &ValidationError{Problems: []string{"group_by must be one of: day, week, month"}}
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, &ValidationError{Problems: []string{"to must not be before from"}}
	}

	args := []any{accountID, format}
	q := `
		SELECT to_char(created_at, $2) AS period,
		       SUM(total),
		       COUNT(*),
		       ROUND(AVG(total), 2)
		FROM bills
		WHERE account_id = $1 AND status = 'paid'`
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	q += " GROUP BY period ORDER BY period"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales report: %w", err)
	}
	defer rows.Close()

	report := []SalesReportRow{}
	for rows.Next() {
		var r SalesReportRow
		if err := rows.Scan(&r.Period, &r.TotalSales, &r.TotalOrders, &r.AverageOrderValue); err != nil {
			return nil, fmt.Errorf("failed to scan sales report row: %w", err)
		}
		report = append(report, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales report row iteration error: %w", err)
	}
	return report, nil
}
