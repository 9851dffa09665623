package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryLedger is the single owner of Product.quantity. Every write to the column,
// a product edit included, goes through it and leaves a stock movement.
type InventoryLedger interface {
	// Standalone operations (manage their own transactions).

	// Lookup returns the product if it exists, belongs to accountID, and is active.
	Lookup(ctx context.Context, accountID, productID int) (*Product, error)
	// CheckAvailable succeeds iff Lookup succeeds and quantity >= qty.
	CheckAvailable(ctx context.Context, accountID, productID, qty int) (*Product, error)
	// Decrement subtracts qty only if at least qty units remain and returns the new quantity.
	Decrement(ctx context.Context, accountID, productID, qty int) (int, error)
	// AdjustQuantity applies an inventory correction; subtract floors at zero.
	AdjustQuantity(ctx context.Context, accountID, productID int, mode AdjustMode, amount int) (*Product, error)
	// BulkAdjust applies several adjustments in one transaction. A missing product or
	// a rejected amount fails only its own item; results follow the input order.
	BulkAdjust(ctx context.Context, accountID int, items []BulkAdjustItem) ([]BulkAdjustResult, error)
	// ListMovements returns the product's stock audit trail, newest first.
	ListMovements(ctx context.Context, accountID, productID int) ([]StockMovement, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by BillingService to keep decrements atomic with the bill insert.

	// LockProductsTx row-locks the active products among productIDs owned by accountID,
	// in id order so concurrent bills touching the same products cannot deadlock.
	// Missing ids are simply absent from the returned map.
	LockProductsTx(ctx context.Context, tx pgx.Tx, accountID int, productIDs []int) (map[int]*Product, error)
	// DecrementTx is the conditional decrement inside the caller's TX. billID links the
	// movement record to the bill that caused it.
	DecrementTx(ctx context.Context, tx pgx.Tx, accountID, productID, qty int, billID *int) (int, error)
	// AdjustQuantityTx is AdjustQuantity inside the caller's TX. ProductService uses it
	// so a catalog edit that changes quantity is audited like any other adjustment.
	AdjustQuantityTx(ctx context.Context, tx pgx.Tx, accountID, productID int, mode AdjustMode, amount int) (*Product, error)
}

type inventoryLedger struct {
	pool *pgxpool.Pool
}

func NewInventoryLedger(pool *pgxpool.Pool) InventoryLedger {
	return &inventoryLedger{pool: pool}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const productColumns = `id, account_id, name, description, category, price, cost_price,
	quantity, min_stock_level, barcode, image_url, supplier, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Description, &p.Category, &p.Price, &p.CostPrice,
		&p.Quantity, &p.MinStockLevel, &p.Barcode, &p.ImageURL, &p.Supplier, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func productNotFound(productID int) error {
	return &NotFoundError{Entity: "product", Ref: "id " + strconv.Itoa(productID)}
}

// lookupProduct fetches an active product of accountID, optionally row-locking it.
func lookupProduct(ctx context.Context, q pgxQuerier, accountID, productID int, forUpdate bool) (*Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1 AND account_id = $2 AND is_active = true"
	if forUpdate {
		query += " FOR UPDATE"
	}
	p, err := scanProduct(q.QueryRow(ctx, query, productID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, productNotFound(productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	return p, nil
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (l *inventoryLedger) Lookup(ctx context.Context, accountID, productID int) (*Product, error) {
	return lookupProduct(ctx, l.pool, accountID, productID, false)
}

func (l *inventoryLedger) CheckAvailable(ctx context.Context, accountID, productID, qty int) (*Product, error) {
	p, err := l.Lookup(ctx, accountID, productID)
	if err != nil {
		return nil, err
	}
	if p.Quantity < qty {
		return nil, &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Quantity, Requested: qty}
	}
	return p, nil
}

func (l *inventoryLedger) Decrement(ctx context.Context, accountID, productID, qty int) (int, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	remaining, err := l.DecrementTx(ctx, tx, accountID, productID, qty, nil)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit decrement: %w", err)
	}
	return remaining, nil
}

func (l *inventoryLedger) AdjustQuantity(ctx context.Context, accountID, productID int, mode AdjustMode, amount int) (*Product, error) {
	if err := checkAdjustment(mode, amount); err != nil {
		return nil, err
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := l.AdjustQuantityTx(ctx, tx, accountID, productID, mode, amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quantity adjustment: %w", err)
	}
	return p, nil
}

func (l *inventoryLedger) BulkAdjust(ctx context.Context, accountID int, items []BulkAdjustItem) ([]BulkAdjustResult, error) {
	if err := validateStruct(&bulkAdjustRequest{Updates: items}); err != nil {
		return nil, err
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	locked, err := l.LockProductsTx(ctx, tx, accountID, sortedUnique(ids))
	if err != nil {
		return nil, err
	}

	results := make([]BulkAdjustResult, 0, len(items))
	for _, it := range items {
		res := BulkAdjustResult{ProductID: it.ProductID}
		p, ok := locked[it.ProductID]
		if !ok {
			res.Message = "product not found"
			results = append(results, res)
			continue
		}

		mode := it.Operation
		if mode == "" {
			mode = AdjustSubtract
		}
		updated, err := adjustLocked(ctx, tx, p, mode, it.Quantity)
		var ve *ValidationError
		if errors.As(err, &ve) {
			res.Message = ve.Error()
			results = append(results, res)
			continue
		}
		if err != nil {
			return nil, err
		}

		// Later items for the same product start from this result.
		locked[p.ID] = updated
		qty := updated.Quantity
		res.Success = true
		res.NewQuantity = &qty
		results = append(results, res)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bulk adjustment: %w", err)
	}
	return results, nil
}

func checkAdjustment(mode AdjustMode, amount int) error {
	if _, err := ParseAdjustMode(string(mode)); err != nil {
		return err
	}
	if amount < 0 {
		return &ValidationError{Problems: []string{"quantity cannot be negative"}}
	}
	if amount > MaxQuantity {
		return &ValidationError{Problems: []string{fmt.Sprintf("quantity cannot exceed %d", MaxQuantity)}}
	}
	return nil
}

// adjustLocked applies an adjustment to p, which the caller holds a row lock on, and
// records the movement.
func adjustLocked(ctx context.Context, tx pgx.Tx, p *Product, mode AdjustMode, amount int) (*Product, error) {
	if err := checkAdjustment(mode, amount); err != nil {
		return nil, err
	}
	if mode == AdjustAdd && amount > MaxQuantity-p.Quantity {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("quantity cannot exceed %d", MaxQuantity)}}
	}

	before := p.Quantity
	newQty, movementType := applyAdjustment(before, mode, amount)

	updated, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products SET quantity = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+productColumns, newQty, p.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to update quantity for product %d: %w", p.ID, err)
	}

	if err := insertMovement(ctx, tx, p.AccountID, p.ID, movementType, newQty-before, newQty, nil); err != nil {
		return nil, err
	}
	return updated, nil
}

// sortedUnique returns the distinct ids in ascending order, the order rows are locked in.
func sortedUnique(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// applyAdjustment returns the resulting quantity and the movement type for an adjustment.
func applyAdjustment(current int, mode AdjustMode, amount int) (int, string) {
	switch mode {
	case AdjustAdd:
		return current + amount, MovementAdjustAdd
	case AdjustSubtract:
		return max(current-amount, 0), MovementAdjustSubtract
	default:
		return amount, MovementAdjustSet
	}
}

func (l *inventoryLedger) ListMovements(ctx context.Context, accountID, productID int) ([]StockMovement, error) {
	if _, err := l.Lookup(ctx, accountID, productID); err != nil {
		return nil, err
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, product_id, movement_type, delta, quantity_after, bill_id, created_at
		FROM stock_movements
		WHERE account_id = $1 AND product_id = $2
		ORDER BY id DESC
	`, accountID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	movements := []StockMovement{}
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.MovementType, &m.Delta, &m.QuantityAfter, &m.BillID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock movements: %w", err)
	}
	return movements, nil
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

func (l *inventoryLedger) LockProductsTx(ctx context.Context, tx pgx.Tx, accountID int, productIDs []int) (map[int]*Product, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE account_id = $1 AND id = ANY($2) AND is_active = true
		ORDER BY id
		FOR UPDATE
	`, accountID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	locked := make(map[int]*Product, len(productIDs))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked product: %w", err)
		}
		locked[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked products: %w", err)
	}
	return locked, nil
}

func (l *inventoryLedger) DecrementTx(ctx context.Context, tx pgx.Tx, accountID, productID, qty int, billID *int) (int, error) {
	if qty < 1 {
		return 0, &ValidationError{Problems: []string{"quantity must be at least 1"}}
	}

	var remaining int
	err := tx.QueryRow(ctx, `
		UPDATE products
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND account_id = $3 AND is_active = true AND quantity >= $1
		RETURNING quantity
	`, qty, productID, accountID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the product is gone or it holds fewer than qty units.
		p, lookupErr := lookupProduct(ctx, tx, accountID, productID, false)
		if lookupErr != nil {
			return 0, lookupErr
		}
		return 0, &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Quantity, Requested: qty}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement product %d: %w", productID, err)
	}

	if err := insertMovement(ctx, tx, accountID, productID, MovementSale, -qty, remaining, billID); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (l *inventoryLedger) AdjustQuantityTx(ctx context.Context, tx pgx.Tx, accountID, productID int, mode AdjustMode, amount int) (*Product, error) {
	if err := checkAdjustment(mode, amount); err != nil {
		return nil, err
	}
	p, err := lookupProduct(ctx, tx, accountID, productID, true)
	if err != nil {
		return nil, err
	}
	return adjustLocked(ctx, tx, p, mode, amount)
}

func insertMovement(ctx context.Context, tx pgx.Tx, accountID, productID int, movementType string, delta, quantityAfter int, billID *int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (account_id, product_id, movement_type, delta, quantity_after, bill_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, accountID, productID, movementType, delta, quantityAfter, billID)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement for product %d: %w", productID, err)
	}
	return nil
}
