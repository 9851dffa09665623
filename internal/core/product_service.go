package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductService manages the catalog. Quantity changes after creation, an edit's
// included, are applied through the InventoryLedger.
type ProductService interface {
	CreateProduct(ctx context.Context, accountID int, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, accountID, productID int, in ProductInput) (*Product, error)
	// DeactivateProduct soft-deletes; the product disappears from every lookup and listing.
	DeactivateProduct(ctx context.Context, accountID, productID int) error
	GetProduct(ctx context.Context, accountID, productID int) (*Product, error)
	ListProducts(ctx context.Context, accountID int, f ProductFilter) ([]Product, error)
	// Categories returns the distinct categories of active products, sorted.
	Categories(ctx context.Context, accountID int) ([]string, error)
	// LowStock returns active products at or below their minimum level, emptiest first.
	LowStock(ctx context.Context, accountID int) ([]Product, error)
}

type productService struct {
	pool   *pgxpool.Pool
	ledger InventoryLedger
}

func NewProductService(pool *pgxpool.Pool, ledger InventoryLedger) ProductService {
	return &productService{pool: pool, ledger: ledger}
}

func normalizeProductInput(in *ProductInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Supplier = strings.TrimSpace(in.Supplier)
}

func validateProductInput(in *ProductInput) error {
	err := validateStruct(in)
	extra := append(moneyProblems("price", in.Price), moneyProblems("cost_price", in.CostPrice)...)
	return mergeProblems(err, extra...)
}

// mapProductWriteError turns constraint violations on products into domain errors.
func mapProductWriteError(err error, action string) error {
	if name, ok := uniqueViolation(err); ok && name == "products_barcode_key" {
		return &DuplicateKeyError{Field: "barcode"}
	} else if ok {
		return &DuplicateKeyError{Field: name}
	}
	return fmt.Errorf("failed to %s product: %w", action, err)
}

func (s *productService) CreateProduct(ctx context.Context, accountID int, in ProductInput) (*Product, error) {
	normalizeProductInput(&in)
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}
	minStock := DefaultMinStockLevel
	if in.MinStockLevel != nil {
		minStock = *in.MinStockLevel
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanProduct(tx.QueryRow(ctx, `
		INSERT INTO products (account_id, name, description, category, price, cost_price,
		                      quantity, min_stock_level, barcode, image_url, supplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns,
		accountID, in.Name, in.Description, in.Category, in.Price, in.CostPrice,
		in.Quantity, minStock, in.Barcode, in.ImageURL, in.Supplier,
	))
	if err != nil {
		return nil, mapProductWriteError(err, "create")
	}

	if p.Quantity > 0 {
		if err := insertMovement(ctx, tx, accountID, p.ID, MovementInitial, p.Quantity, p.Quantity, nil); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product: %w", err)
	}
	return p, nil
}

func (s *productService) UpdateProduct(ctx context.Context, accountID, productID int, in ProductInput) (*Product, error) {
	normalizeProductInput(&in)
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lookupProduct(ctx, tx, accountID, productID, true)
	if err != nil {
		return nil, err
	}

	// A nil MinStockLevel keeps the stored threshold.
	p, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4, cost_price = $5,
		    min_stock_level = COALESCE($6, min_stock_level),
		    barcode = $7, image_url = $8, supplier = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING `+productColumns,
		in.Name, in.Description, in.Category, in.Price, in.CostPrice,
		in.MinStockLevel, in.Barcode, in.ImageURL, in.Supplier, productID,
	))
	if err != nil {
		return nil, mapProductWriteError(err, "update")
	}

	// The edit's quantity is compared against the locked row, so a bill committed
	// since the client read the product still shows up as a movement.
	if in.Quantity != current.Quantity {
		p, err = s.ledger.AdjustQuantityTx(ctx, tx, accountID, productID, AdjustSet, in.Quantity)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return p, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, accountID, productID int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND account_id = $2 AND is_active = true
	`, productID, accountID)
	if err != nil {
		return fmt.Errorf("failed to deactivate product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return productNotFound(productID)
	}
	return nil
}

func (s *productService) GetProduct(ctx context.Context, accountID, productID int) (*Product, error) {
	return lookupProduct(ctx, s.pool, accountID, productID, false)
}

// stockStatusClause maps a stock status onto a WHERE fragment over products.
func stockStatusClause(status StockStatus) (string, error) {
	switch status {
	case StockOut:
		return "quantity = 0", nil
	case StockLow:
		return "quantity > 0 AND quantity <= min_stock_level", nil
	case StockIn:
		return "quantity > min_stock_level", nil
	}
	return "", &ValidationError{Problems: []string{"stock_status must be one of: in-stock, low-stock, out-of-stock"}}
}

func (s *productService) ListProducts(ctx context.Context, accountID int, f ProductFilter) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE account_id = $1 AND is_active = true"
	args := []any{accountID}

	if c := strings.TrimSpace(f.Category); c != "" {
		args = append(args, c)
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", len(args))
	}
	if f.StockStatus != "" {
		clause, err := stockStatusClause(f.StockStatus)
		if err != nil {
			return nil, err
		}
		query += " AND " + clause
	}
	query += " ORDER BY created_at DESC, id DESC"

	return s.queryProducts(ctx, query, args...)
}

func (s *productService) LowStock(ctx context.Context, accountID int) ([]Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE account_id = $1 AND is_active = true AND quantity <= min_stock_level
		ORDER BY quantity ASC, name ASC
	`, accountID)
}

func (s *productService) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (s *productService) Categories(ctx context.Context, accountID int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT category FROM products
		WHERE account_id = $1 AND is_active = true
		ORDER BY category
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
