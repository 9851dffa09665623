package app

import "time"

// AdjustStockRequest is the input for a manual quantity correction.
type AdjustStockRequest struct {
	AccountID int
	ProductID int
	Operation string // set, add, subtract; empty means set
	Quantity  int
}

// SalesReportRequest is the input for GetSalesReport. Nil bounds are open.
type SalesReportRequest struct {
	AccountID int
	From      *time.Time
	To        *time.Time
	GroupBy   string
}
