package core

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus classifies a product's quantity against its minimum stock level.
type StockStatus string

const (
	StockOut StockStatus = "out-of-stock"
	StockLow StockStatus = "low-stock"
	StockIn  StockStatus = "in-stock"
)

// DefaultMinStockLevel applies when a product is created without a threshold.
const DefaultMinStockLevel = 10

// MaxQuantity is the largest quantity the INT column holds.
const MaxQuantity = math.MaxInt32

// Product is a catalog item owned by one account. After creation Quantity is only
// changed by the InventoryLedger.
type Product struct {
	ID            int             `json:"id"`
	AccountID     int             `json:"account_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	Quantity      int             `json:"quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	Barcode       string          `json:"barcode,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	Supplier      string          `json:"supplier,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// StockStatus derives the product's stock classification.
func (p Product) StockStatus() StockStatus {
	switch {
	case p.Quantity <= 0:
		return StockOut
	case p.Quantity <= p.MinStockLevel:
		return StockLow
	default:
		return StockIn
	}
}

// ProfitMargin is (price - cost) / cost * 100 rounded to two places, or zero without a cost.
func (p Product) ProfitMargin() decimal.Decimal {
	if !p.CostPrice.IsPositive() {
		return decimal.Zero
	}
	return p.Price.Sub(p.CostPrice).Div(p.CostPrice).Mul(decimal.NewFromInt(100)).Round(2)
}

// MarshalJSON adds the derived stock_status and profit_margin fields.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		StockStatus  StockStatus     `json:"stock_status"`
		ProfitMargin decimal.Decimal `json:"profit_margin"`
	}{plain(p), p.StockStatus(), p.ProfitMargin()})
}

// ProductInput carries the editable product fields for create and update.
// MinStockLevel nil means DefaultMinStockLevel.
type ProductInput struct {
	Name          string          `json:"name" validate:"required,min=2,max=100"`
	Description   string          `json:"description" validate:"max=500"`
	Category      string          `json:"category" validate:"required,min=2,max=50"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	CostPrice     decimal.Decimal `json:"cost_price" validate:"gte=0"`
	Quantity      int             `json:"quantity" validate:"gte=0,max=2147483647"`
	MinStockLevel *int            `json:"min_stock_level" validate:"omitempty,gte=0,max=2147483647"`
	Barcode       string          `json:"barcode" validate:"max=50"`
	ImageURL      string          `json:"image_url" validate:"omitempty,http_url"`
	Supplier      string          `json:"supplier" validate:"max=100"`
}

// ProductFilter narrows ListProducts. Empty fields do not filter.
type ProductFilter struct {
	Category    string
	StockStatus StockStatus
}

// AdjustMode selects how AdjustQuantity applies its amount.
type AdjustMode string

const (
	AdjustSet      AdjustMode = "set"
	AdjustAdd      AdjustMode = "add"
	AdjustSubtract AdjustMode = "subtract"
)

// ParseAdjustMode accepts set, add, or subtract; empty means set.
func ParseAdjustMode(s string) (AdjustMode, error) {
	switch AdjustMode(s) {
	case "", AdjustSet:
		return AdjustSet, nil
	case AdjustAdd, AdjustSubtract:
		return AdjustMode(s), nil
	}
	return "", &ValidationError{Problems: []string{"operation must be one of: set, add, subtract"}}
}

// BulkAdjustItem is one entry of a bulk stock update. Operation defaults to subtract.
type BulkAdjustItem struct {
	ProductID int        `json:"product_id" validate:"required,gt=0"`
	Quantity  int        `json:"quantity" validate:"gte=0,max=2147483647"`
	Operation AdjustMode `json:"operation" validate:"omitempty,oneof=set add subtract"`
}

type bulkAdjustRequest struct {
	Updates []BulkAdjustItem `json:"updates" validate:"required,min=1,max=500,dive"`
}

// BulkAdjustResult reports one item of a bulk update, in request order.
type BulkAdjustResult struct {
	ProductID   int    `json:"product_id"`
	Success     bool   `json:"success"`
	NewQuantity *int   `json:"new_quantity,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Movement types recorded in stock_movements.
const (
	MovementInitial        = "INITIAL"
	MovementSale           = "SALE"
	MovementAdjustSet      = "ADJUST_SET"
	MovementAdjustAdd      = "ADJUST_ADD"
	MovementAdjustSubtract = "ADJUST_SUBTRACT"
)

// StockMovement is one entry of a product's quantity audit trail.
type StockMovement struct {
	ID            int       `json:"id"`
	ProductID     int       `json:"product_id"`
	MovementType  string    `json:"movement_type"`
	Delta         int       `json:"delta"`
	QuantityAfter int       `json:"quantity_after"`
	BillID        *int      `json:"bill_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
