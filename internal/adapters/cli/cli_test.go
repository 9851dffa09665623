package cli

import (
	"bytes"
	"context"
	"testing"

	"shopdesk/internal/app"
	"shopdesk/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	app.ApplicationService

	adjust    app.AdjustStockRequest
	report    app.SalesReportRequest
	billsSeen core.BillFilter
}

func (f *fakeService) ListProducts(ctx context.Context, accountID int, filter core.ProductFilter) (*app.ProductListResult, error) {
	return &app.ProductListResult{Products: []core.Product{
		{ID: 1, Name: "Widget", Category: "Tools", Quantity: 2, MinStockLevel: 2},
		{ID: 2, Name: "Gadget", Category: "Tools", Quantity: 0, MinStockLevel: 5},
	}}, nil
}

func (f *fakeService) AdjustStock(ctx context.Context, req app.AdjustStockRequest) (*core.Product, error) {
	f.adjust = req
	return &core.Product{ID: req.ProductID, Name: "Widget", Quantity: 12, MinStockLevel: 2}, nil
}

func (f *fakeService) ListBills(ctx context.Context, accountID int, filter core.BillFilter) (*app.BillListResult, error) {
	f.billsSeen = filter
	return &app.BillListResult{}, nil
}

func (f *fakeService) GetSalesReport(ctx context.Context, req app.SalesReportRequest) (*app.SalesReportResult, error) {
	f.report = req
	return &app.SalesReportResult{GroupBy: "month", Rows: []core.SalesReportRow{
		{Period: "2026-10", TotalSales: decimal.NewFromInt(305), TotalOrders: 1, AverageOrderValue: decimal.NewFromInt(305)},
	}}, nil
}

func TestRun_Stock(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), &fakeService{}, []string{"stock", "1"}, &out))
	assert.Contains(t, out.String(), "Widget")
	assert.Contains(t, out.String(), "low-stock")
	assert.Contains(t, out.String(), "out-of-stock")
}

func TestRun_Adjust(t *testing.T) {
	svc := &fakeService{}
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), svc, []string{"adjust", "3", "9", "add", "10"}, &out))
	assert.Equal(t, app.AdjustStockRequest{AccountID: 3, ProductID: 9, Operation: "add", Quantity: 10}, svc.adjust)
	assert.Contains(t, out.String(), "quantity is now 12 [in-stock]")
}

func TestRun_Report(t *testing.T) {
	svc := &fakeService{}
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), svc, []string{"report", "3", "month"}, &out))
	assert.Equal(t, "month", svc.report.GroupBy)
	assert.Contains(t, out.String(), "305.00")
}

func TestRun_Errors(t *testing.T) {
	svc := &fakeService{}
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, Run(ctx, svc, nil, &out))
	assert.Error(t, Run(ctx, svc, []string{"stock"}, &out))
	assert.Error(t, Run(ctx, svc, []string{"stock", "zero"}, &out))
	assert.Error(t, Run(ctx, svc, []string{"adjust", "1", "2", "add"}, &out))
	assert.Error(t, Run(ctx, svc, []string{"bills", "1", "refunded"}, &out))
	assert.ErrorContains(t, Run(ctx, svc, []string{"frobnicate", "1"}, &out), "unknown command")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
