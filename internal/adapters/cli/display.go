package cli

import (
	"fmt"
	"io"
	"strings"

	"shopdesk/internal/app"
)

func printProducts(out io.Writer, title string, accountID int, result *app.ProductListResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintf(out, "  %s, account %d\n", title, accountID)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	if len(result.Products) == 0 {
		fmt.Fprintln(out, "  No products found.")
		fmt.Fprintln(out, strings.Repeat("=", 78))
		return
	}
	fmt.Fprintf(out, "  %-6s %-28s %-14s %8s %6s %12s\n", "ID", "NAME", "CATEGORY", "QTY", "MIN", "STATUS")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for _, p := range result.Products {
		fmt.Fprintf(out, "  %-6d %-28s %-14s %8d %6d %12s\n",
			p.ID, truncate(p.Name, 28), truncate(p.Category, 14), p.Quantity, p.MinStockLevel, p.StockStatus())
	}
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func printBills(out io.Writer, accountID int, result *app.BillListResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintf(out, "  BILLS, account %d\n", accountID)
	fmt.Fprintln(out, strings.Repeat("=", 78))
	if len(result.Bills) == 0 {
		fmt.Fprintln(out, "  No bills found.")
		fmt.Fprintln(out, strings.Repeat("=", 78))
		return
	}
	fmt.Fprintf(out, "  %-18s %-22s %-10s %12s  %s\n", "NUMBER", "CUSTOMER", "STATUS", "TOTAL", "DATE")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for _, b := range result.Bills {
		fmt.Fprintf(out, "  %-18s %-22s %-10s %12s  %s\n",
			b.BillNumber, truncate(b.CustomerName, 22), b.Status, b.Total.StringFixed(2), b.CreatedAt.Format("2006-01-02"))
	}
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func printSalesReport(out io.Writer, accountID int, result *app.SalesReportResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  SALES REPORT by %s, account %d\n", result.GroupBy, accountID)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	if len(result.Rows) == 0 {
		fmt.Fprintln(out, "  No paid sales in range.")
		fmt.Fprintln(out, strings.Repeat("=", 62))
		return
	}
	fmt.Fprintf(out, "  %-12s %15s %10s %15s\n", "PERIOD", "SALES", "ORDERS", "AVG ORDER")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, r := range result.Rows {
		fmt.Fprintf(out, "  %-12s %15s %10d %15s\n",
			r.Period, r.TotalSales.StringFixed(2), r.TotalOrders, r.AverageOrderValue.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
