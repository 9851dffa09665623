package app

import "shopdesk/internal/core"

// AccountSession is returned by Register and Authenticate.
type AccountSession struct {
	AccountID int    `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ShopName  string `json:"shop_name"`
}

// ProductListResult is returned by ListProducts and LowStock.
type ProductListResult struct {
	Products []core.Product `json:"products"`
	Count    int            `json:"count"`
}

// MovementListResult is returned by ListMovements.
type MovementListResult struct {
	ProductID int                  `json:"product_id"`
	Movements []core.StockMovement `json:"movements"`
}

// BulkAdjustResult is returned by BulkAdjustStock. Applied counts the successful items.
type BulkAdjustResult struct {
	Results []core.BulkAdjustResult `json:"results"`
	Applied int                     `json:"applied"`
}

// BillListResult is returned by ListBills.
type BillListResult struct {
	Bills []core.Bill `json:"bills"`
	Count int         `json:"count"`
}

// SalesReportResult is returned by GetSalesReport.
type SalesReportResult struct {
	GroupBy string                `json:"group_by"`
	Rows    []core.SalesReportRow `json:"rows"`
}
