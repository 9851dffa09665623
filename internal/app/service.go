package app

import (
	"context"

	"shopdesk/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Every catalog and billing method is scoped by accountID; records of another
// account behave as if they do not exist.
type ApplicationService interface {
	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error

	// Register creates a shop owner account and returns its session.
	Register(ctx context.Context, in core.RegisterInput) (*AccountSession, error)

	// Authenticate verifies credentials and returns a session on success.
	Authenticate(ctx context.Context, email, password string) (*AccountSession, error)

	// GetAccount returns the account profile by ID.
	GetAccount(ctx context.Context, accountID int) (*core.Account, error)

	// UpdateProfile edits the account's profile fields and optionally its password.
	UpdateProfile(ctx context.Context, accountID int, in core.ProfileInput) (*core.Account, error)

	// ListProducts returns active products, optionally filtered by category and stock status.
	ListProducts(ctx context.Context, accountID int, filter core.ProductFilter) (*ProductListResult, error)

	GetProduct(ctx context.Context, accountID, productID int) (*core.Product, error)
	CreateProduct(ctx context.Context, accountID int, in core.ProductInput) (*core.Product, error)
	UpdateProduct(ctx context.Context, accountID, productID int, in core.ProductInput) (*core.Product, error)

	// DeactivateProduct soft-deletes a product.
	DeactivateProduct(ctx context.Context, accountID, productID int) error

	// ListCategories returns the distinct categories of active products.
	ListCategories(ctx context.Context, accountID int) ([]string, error)

	// LowStock returns products at or below their minimum stock level.
	LowStock(ctx context.Context, accountID int) (*ProductListResult, error)

	// AdjustStock applies a set/add/subtract correction to a product's quantity.
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.Product, error)

	// BulkAdjustStock applies several corrections in one transaction, reporting each.
	BulkAdjustStock(ctx context.Context, accountID int, items []core.BulkAdjustItem) (*BulkAdjustResult, error)

	// ListMovements returns a product's stock audit trail, newest first.
	ListMovements(ctx context.Context, accountID, productID int) (*MovementListResult, error)

	// CreateBill records a sale and decrements stock atomically.
	CreateBill(ctx context.Context, accountID int, in core.CreateBillInput) (*core.Bill, error)

	GetBill(ctx context.Context, accountID, billID int) (*core.Bill, error)
	ListBills(ctx context.Context, accountID int, filter core.BillFilter) (*BillListResult, error)

	// UpdateBillStatus moves a bill to paid, pending, or cancelled.
	UpdateBillStatus(ctx context.Context, accountID, billID int, status string) (*core.Bill, error)

	GetDashboard(ctx context.Context, accountID int) (*core.Dashboard, error)

	// GetSalesReport groups paid sales by day, week, or month.
	GetSalesReport(ctx context.Context, req SalesReportRequest) (*SalesReportResult, error)
}
