package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BillingService turns sale requests into persisted bills and keeps stock in step.
type BillingService interface {
	// CreateBill validates every line, then in one transaction persists the bill,
	// its items, and the stock decrements. Either all of it happens or none of it.
	CreateBill(ctx context.Context, accountID int, in CreateBillInput) (*Bill, error)

	// UpdateBillStatus sets the bill's status. Any status may follow any other.
	UpdateBillStatus(ctx context.Context, accountID, billID int, status string) (*Bill, error)

	GetBill(ctx context.Context, accountID, billID int) (*Bill, error)

	// ListBills returns bills newest first, with items.
	ListBills(ctx context.Context, accountID int, f BillFilter) ([]Bill, error)
}

type billingService struct {
	pool   *pgxpool.Pool
	ledger InventoryLedger
	prefix string
}

// NewBillingService constructs a BillingService. prefix starts every bill number.
func NewBillingService(pool *pgxpool.Pool, ledger InventoryLedger, prefix string) BillingService {
	if prefix == "" {
		prefix = "BILL"
	}
	return &billingService{pool: pool, ledger: ledger, prefix: prefix}
}

// normalizeBillInput trims free text and applies the payment and status defaults.
func normalizeBillInput(in *CreateBillInput) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentCash
	}
	if in.Status == "" {
		in.Status = BillStatusPaid
	}
}

// validateBillInput checks the request shape and the resulting total. It never
// touches storage.
func validateBillInput(in *CreateBillInput) (subtotal, total decimal.Decimal, err error) {
	err = validateStruct(in)

	var extra []string
	for i, line := range in.Items {
		extra = append(extra, moneyProblems(fmt.Sprintf("items[%d].price", i), line.Price)...)
	}
	extra = append(extra, moneyProblems("tax", in.Tax)...)
	extra = append(extra, moneyProblems("discount", in.Discount)...)

	subtotal, total = billTotals(in.Items, in.Tax, in.Discount)
	if total.IsNegative() {
		extra = append(extra, "discount cannot exceed subtotal plus tax")
	}
	if subtotal.Add(in.Tax).GreaterThan(maxMoney) {
		extra = append(extra, "bill total cannot exceed "+maxMoney.String())
	}
	return subtotal, total, mergeProblems(err, extra...)
}

func (s *billingService) CreateBill(ctx context.Context, accountID int, in CreateBillInput) (*Bill, error) {
	normalizeBillInput(&in)
	subtotal, total, err := validateBillInput(&in)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := s.ledger.LockProductsTx(ctx, tx, accountID, distinctProductIDs(in.Items))
	if err != nil {
		return nil, err
	}

	// Walk lines in request order so the first failing line is the one reported.
	// Nothing has been written until every line passes.
	requested := make(map[int]int, len(locked))
	items := make([]BillItem, 0, len(in.Items))
	for i, line := range in.Items {
		p, ok := locked[line.ProductID]
		if !ok {
			ref := strings.TrimSpace(line.ProductName)
			if ref == "" {
				ref = "id " + strconv.Itoa(line.ProductID)
			}
			return nil, &NotFoundError{Entity: "product", Ref: ref}
		}
		already := requested[p.ID]
		if already+line.Quantity > p.Quantity {
			return nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Quantity - already,
				Requested:   line.Quantity,
			}
		}
		requested[p.ID] = already + line.Quantity

		items = append(items, BillItem{
			LineNumber:  i + 1,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Total:       lineTotal(line.Quantity, line.Price),
		})
	}

	billNumber, err := s.nextBillNumberTx(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	var billID int
	err = tx.QueryRow(ctx, `
		INSERT INTO bills (bill_number, account_id, customer_name, customer_phone, customer_email,
		                   subtotal, tax, discount, total, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, billNumber, accountID, in.CustomerName, in.CustomerPhone, in.CustomerEmail,
		subtotal, in.Tax, in.Discount, total, in.PaymentMethod, in.Status).Scan(&billID)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, &DuplicateKeyError{Field: "bill number"}
		}
		return nil, fmt.Errorf("failed to insert bill: %w", err)
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO bill_items (bill_id, line_number, product_id, product_name, quantity, price, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, billID, item.LineNumber, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Total)
		if err != nil {
			return nil, fmt.Errorf("failed to insert bill line %d: %w", item.LineNumber, err)
		}
	}

	for _, item := range items {
		if _, err := s.ledger.DecrementTx(ctx, tx, accountID, item.ProductID, item.Quantity, &billID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bill creation: %w", err)
	}

	return s.GetBill(ctx, accountID, billID)
}

// nextBillNumberTx claims the account's next gapless sequence value. The row lock
// taken by the upsert serializes concurrent bills of one account until commit.
func (s *billingService) nextBillNumberTx(ctx context.Context, tx pgx.Tx, accountID int) (string, error) {
	var seq int64
	err := tx.QueryRow(ctx, `
		INSERT INTO bill_sequences (account_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (account_id)
		DO UPDATE SET last_number = bill_sequences.last_number + 1
		RETURNING last_number
	`, accountID).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to generate bill number: %w", err)
	}
	return fmt.Sprintf("%s-%d-%06d", s.prefix, accountID, seq), nil
}

func distinctProductIDs(lines []BillLineInput) []int {
	seen := make(map[int]bool, len(lines))
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	sort.Ints(ids)
	return ids
}

func (s *billingService) UpdateBillStatus(ctx context.Context, accountID, billID int, status string) (*Bill, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ValidBillStatus(status) {
		return nil, &ValidationError{Problems: []string{"status must be one of: paid, pending, cancelled"}}
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		UPDATE bills SET status = $1, updated_at = NOW()
		WHERE id = $2 AND account_id = $3
		RETURNING id
	`, status, billID, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billNotFound(billID)
		}
		return nil, fmt.Errorf("failed to update bill %d status: %w", billID, err)
	}

	return s.GetBill(ctx, accountID, billID)
}

func billNotFound(billID int) error {
	return &NotFoundError{Entity: "bill", Ref: "id " + strconv.Itoa(billID)}
}

const billColumns = `id, bill_number, account_id, customer_name, customer_phone, customer_email,
	subtotal, tax, discount, total, payment_method, status, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNumber, &b.AccountID, &b.CustomerName, &b.CustomerPhone, &b.CustomerEmail,
		&b.Subtotal, &b.Tax, &b.Discount, &b.Total, &b.PaymentMethod, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *billingService) GetBill(ctx context.Context, accountID, billID int) (*Bill, error) {
	b, err := scanBill(s.pool.QueryRow(ctx,
		"SELECT "+billColumns+" FROM bills WHERE id = $1 AND account_id = $2",
		billID, accountID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billNotFound(billID)
		}
		return nil, fmt.Errorf("failed to fetch bill %d: %w", billID, err)
	}

	items, err := s.fetchItems(ctx, []int{b.ID})
	if err != nil {
		return nil, err
	}
	b.Items = items[b.ID]
	return b, nil
}

func (s *billingService) ListBills(ctx context.Context, accountID int, f BillFilter) ([]Bill, error) {
	query := "SELECT " + billColumns + " FROM bills WHERE account_id = $1"
	args := []any{accountID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	bills := []Bill{}
	var ids []int
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}
	if len(ids) == 0 {
		return bills, nil
	}

	items, err := s.fetchItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].Items = items[bills[i].ID]
	}
	return bills, nil
}

// fetchItems loads the line items of the given bills keyed by bill id.
func (s *billingService) fetchItems(ctx context.Context, billIDs []int) (map[int][]BillItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT bill_id, line_number, product_id, product_name, quantity, price, total
		FROM bill_items
		WHERE bill_id = ANY($1)
		ORDER BY bill_id, line_number
	`, billIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill items: %w", err)
	}
	defer rows.Close()

	items := make(map[int][]BillItem, len(billIDs))
	for rows.Next() {
		var billID int
		var it BillItem
		if err := rows.Scan(&billID, &it.LineNumber, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Total); err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		items[billID] = append(items[billID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bill items: %w", err)
	}
	return items, nil
}
