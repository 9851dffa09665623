package app

import (
	"context"
	"fmt"

	"shopdesk/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool      *pgxpool.Pool
	accounts  core.AccountService
	products  core.ProductService
	ledger    core.InventoryLedger
	billing   core.BillingService
	reporting core.ReportingService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	accounts core.AccountService,
	products core.ProductService,
	ledger core.InventoryLedger,
	billing core.BillingService,
	reporting core.ReportingService,
) ApplicationService {
	return &appService{
		pool:      pool,
		accounts:  accounts,
		products:  products,
		ledger:    ledger,
		billing:   billing,
		reporting: reporting,
	}
}

// New wires every core service onto pool. billPrefix starts each bill number.
func New(pool *pgxpool.Pool, billPrefix string) ApplicationService {
	ledger := core.NewInventoryLedger(pool)
	return NewAppService(
		pool,
		core.NewAccountService(pool),
		core.NewProductService(pool, ledger),
		ledger,
		core.NewBillingService(pool, ledger, billPrefix),
		core.NewReportingService(pool),
	)
}

func (s *appService) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

func sessionFor(a *core.Account) *AccountSession {
	return &AccountSession{AccountID: a.ID, Name: a.Name, Email: a.Email, ShopName: a.ShopName}
}

func (s *appService) Register(ctx context.Context, in core.RegisterInput) (*AccountSession, error) {
	a, err := s.accounts.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return sessionFor(a), nil
}

func (s *appService) Authenticate(ctx context.Context, email, password string) (*AccountSession, error) {
	a, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return sessionFor(a), nil
}

func (s *appService) GetAccount(ctx context.Context, accountID int) (*core.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

func (s *appService) UpdateProfile(ctx context.Context, accountID int, in core.ProfileInput) (*core.Account, error) {
	return s.accounts.UpdateProfile(ctx, accountID, in)
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context, accountID int, filter core.ProductFilter) (*ProductListResult, error) {
	products, err := s.products.ListProducts(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products, Count: len(products)}, nil
}

func (s *appService) GetProduct(ctx context.Context, accountID, productID int) (*core.Product, error) {
	return s.products.GetProduct(ctx, accountID, productID)
}

func (s *appService) CreateProduct(ctx context.Context, accountID int, in core.ProductInput) (*core.Product, error) {
	return s.products.CreateProduct(ctx, accountID, in)
}

func (s *appService) UpdateProduct(ctx context.Context, accountID, productID int, in core.ProductInput) (*core.Product, error) {
	return s.products.UpdateProduct(ctx, accountID, productID, in)
}

func (s *appService) DeactivateProduct(ctx context.Context, accountID, productID int) error {
	return s.products.DeactivateProduct(ctx, accountID, productID)
}

func (s *appService) ListCategories(ctx context.Context, accountID int) ([]string, error) {
	return s.products.Categories(ctx, accountID)
}

func (s *appService) LowStock(ctx context.Context, accountID int) (*ProductListResult, error) {
	products, err := s.products.LowStock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products, Count: len(products)}, nil
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.Product, error) {
	mode, err := core.ParseAdjustMode(req.Operation)
	if err != nil {
		return nil, err
	}
	return s.ledger.AdjustQuantity(ctx, req.AccountID, req.ProductID, mode, req.Quantity)
}

func (s *appService) BulkAdjustStock(ctx context.Context, accountID int, items []core.BulkAdjustItem) (*BulkAdjustResult, error) {
	results, err := s.ledger.BulkAdjust(ctx, accountID, items)
	if err != nil {
		return nil, err
	}
	out := &BulkAdjustResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.Applied++
		}
	}
	return out, nil
}

func (s *appService) ListMovements(ctx context.Context, accountID, productID int) (*MovementListResult, error) {
	movements, err := s.ledger.ListMovements(ctx, accountID, productID)
	if err != nil {
		return nil, err
	}
	return &MovementListResult{ProductID: productID, Movements: movements}, nil
}

// ── Bills ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateBill(ctx context.Context, accountID int, in core.CreateBillInput) (*core.Bill, error) {
	return s.billing.CreateBill(ctx, accountID, in)
}

func (s *appService) GetBill(ctx context.Context, accountID, billID int) (*core.Bill, error) {
	return s.billing.GetBill(ctx, accountID, billID)
}

func (s *appService) ListBills(ctx context.Context, accountID int, filter core.BillFilter) (*BillListResult, error) {
	bills, err := s.billing.ListBills(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	return &BillListResult{Bills: bills, Count: len(bills)}, nil
}

func (s *appService) UpdateBillStatus(ctx context.Context, accountID, billID int, status string) (*core.Bill, error) {
	return s.billing.UpdateBillStatus(ctx, accountID, billID, status)
}

// ── Analytics ─────────────────────────────────────────────────────────────────

func (s *appService) GetDashboard(ctx context.Context, accountID int) (*core.Dashboard, error) {
	return s.reporting.GetDashboard(ctx, accountID)
}

func (s *appService) GetSalesReport(ctx context.Context, req SalesReportRequest) (*SalesReportResult, error) {
	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = core.GroupByDay
	}
	rows, err := s.reporting.GetSalesReport(ctx, req.AccountID, req.From, req.To, groupBy)
	if err != nil {
		return nil, err
	}
	return &SalesReportResult{GroupBy: groupBy, Rows: rows}, nil
}
