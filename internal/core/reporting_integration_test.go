package core_test

import (
	"context"
	"testing"
	"time"

	"shopdesk/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backdateBill(t *testing.T, pool *pgxpool.Pool, billID int, at time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "UPDATE bills SET created_at = $1 WHERE id = $2", at, billID)
	require.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	billing, _ := newBilling(pool)
	reporting := core.NewReportingService(pool)

	pen := seedProduct(t, pool, shopA, "Pen", 20, 5, "10")
	mug := seedProduct(t, pool, shopA, "Mug", 3, 5, "150")
	seedProduct(t, pool, shopB, "Foreign", 1, 5, "10")

	_, err := billing.CreateBill(ctx, shopA, core.CreateBillInput{
		CustomerName: "One",
		Items: []core.BillLineInput{
			{ProductID: pen, Quantity: 4, Price: dec("10")},
			{ProductID: mug, Quantity: 1, Price: dec("150")},
		},
	})
	require.NoError(t, err)
	_, err = billing.CreateBill(ctx, shopA, core.CreateBillInput{
		CustomerName: "Two",
		Status:       core.BillStatusPending,
		Items:        []core.BillLineInput{{ProductID: pen, Quantity: 10, Price: dec("10")}},
	})
	require.NoError(t, err)

	d, err := reporting.GetDashboard(ctx, shopA)
	require.NoError(t, err)

	assert.Equal(t, 2, d.TotalProducts)
	assert.Equal(t, 1, d.LowStockProducts, "mug at 2 of min 5")
	assert.Equal(t, 1, d.TodaysSales.Count, "pending bills are not sales")
	assert.True(t, dec("190").Equal(d.TodaysSales.Total), "today: %s", d.TodaysSales.Total)
	assert.True(t, dec("190").Equal(d.MonthlySales.Total))

	require.Len(t, d.TopProducts, 2)
	assert.Equal(t, "Pen", d.TopProducts[0].ProductName)
	assert.Equal(t, 4, d.TopProducts[0].TotalSold)
	assert.True(t, dec("40").Equal(d.TopProducts[0].Revenue))

	require.Len(t, d.RecentBills, 2)
	assert.Equal(t, "Two", d.RecentBills[0].CustomerName)

	require.Len(t, d.SalesTrend, 1)
	assert.Equal(t, 1, d.SalesTrend[0].Orders)
}

func TestDashboard_EmptyAccount(t *testing.T) {
	pool := setupTestDB(t)
	reporting := core.NewReportingService(pool)

	d, err := reporting.GetDashboard(context.Background(), shopB)
	require.NoError(t, err)
	assert.Zero(t, d.TotalProducts)
	assert.True(t, d.TodaysSales.Total.IsZero())
	assert.Empty(t, d.TopProducts)
	assert.Empty(t, d.RecentBills)
	assert.Empty(t, d.SalesTrend)
}

func TestSalesReport(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	billing, _ := newBilling(pool)
	reporting := core.NewReportingService(pool)
	pen := seedProduct(t, pool, shopA, "Pen", 100, 5, "10")

	sell := func(qty int, status string, at time.Time) {
		b, err := billing.CreateBill(ctx, shopA, core.CreateBillInput{
			CustomerName: "Walk-in",
			Status:       status,
			Items:        []core.BillLineInput{{ProductID: pen, Quantity: qty, Price: dec("10")}},
		})
		require.NoError(t, err)
		backdateBill(t, pool, b.ID, at)
	}
	sell(1, "paid", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	sell(3, "paid", time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC))
	sell(5, "pending", time.Date(2026, 3, 21, 10, 0, 0, 0, time.UTC))
	sell(2, "paid", time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	rows, err := reporting.GetSalesReport(ctx, shopA, &from, &to, core.GroupByMonth)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-03", rows[0].Period)
	assert.Equal(t, 2, rows[0].TotalOrders)
	assert.True(t, dec("40").Equal(rows[0].TotalSales))
	assert.True(t, dec("20").Equal(rows[0].AverageOrderValue))
	assert.Equal(t, "2026-04", rows[1].Period)

	// The upper bound is exclusive.
	aprilFirst := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	rows, err = reporting.GetSalesReport(ctx, shopA, &from, &aprilFirst, "")
	require.NoError(t, err)
	require.Len(t, rows, 2, "grouped by day by default")
	assert.Equal(t, "2026-03-02", rows[0].Period)

	var ve *core.ValidationError
	_, err = reporting.GetSalesReport(ctx, shopA, nil, nil, "year")
	assert.ErrorAs(t, err, &ve)
	_, err = reporting.GetSalesReport(ctx, shopA, &to, &from, core.GroupByDay)
	assert.ErrorAs(t, err, &ve)
}
