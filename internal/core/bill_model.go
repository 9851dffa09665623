package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill statuses. Any status may move to any other through UpdateBillStatus.
const (
	BillStatusPaid      = "paid"
	BillStatusPending   = "pending"
	BillStatusCancelled = "cancelled"
)

// Payment methods accepted on a bill.
const (
	PaymentCash       = "cash"
	PaymentCard       = "card"
	PaymentUPI        = "upi"
	PaymentNetbanking = "netbanking"
)

// Bill is an immutable sale record; only Status changes after creation.
//
//	Subtotal = sum(Items[i].Total)
//	Total    = Subtotal + Tax - Discount
type Bill struct {
	ID            int             `json:"id"`
	BillNumber    string          `json:"bill_number"`
	AccountID     int             `json:"account_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	Items         []BillItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BillItem is a line snapshot frozen when the bill is created.
type BillItem struct {
	LineNumber  int             `json:"line_number"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// CreateBillInput is the request to the billing engine. Price on each line is the
// caller's unit price and is used as-is, which lets the till override catalog prices.
type CreateBillInput struct {
	CustomerName  string          `json:"customer_name" validate:"required"`
	CustomerPhone string          `json:"customer_phone" validate:"max=20"`
	CustomerEmail string          `json:"customer_email" validate:"omitempty,email"`
	Items         []BillLineInput `json:"items" validate:"required,min=1,dive"`
	Tax           decimal.Decimal `json:"tax" validate:"gte=0"`
	Discount      decimal.Decimal `json:"discount" validate:"gte=0"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash card upi netbanking"`
	Status        string          `json:"status" validate:"omitempty,oneof=paid pending cancelled"`
}

// BillLineInput is one requested line. ProductName is only used to name the line in
// a not-found error; the snapshot uses the catalog name.
type BillLineInput struct {
	ProductID   int             `json:"product_id" validate:"required,gt=0"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" validate:"min=1,max=2147483647"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

// BillFilter narrows ListBills. Zero values do not filter; Limit <= 0 means 50.
type BillFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// ValidBillStatus reports whether s is one of paid, pending, cancelled.
func ValidBillStatus(s string) bool {
	switch s {
	case BillStatusPaid, BillStatusPending, BillStatusCancelled:
		return true
	}
	return false
}

// lineTotal is quantity × unit price.
func lineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// billTotals returns subtotal and total for the given lines and adjustments.
func billTotals(lines []BillLineInput, tax, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	for _, l := range lines {
		subtotal = subtotal.Add(lineTotal(l.Quantity, l.Price))
	}
	return subtotal, subtotal.Add(tax).Sub(discount)
}
