package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"shopdesk/internal/app"
	"shopdesk/internal/core"
)

const usage = `Available commands:
  stock     <account>                                 list active products
  low-stock <account>                                 products at or below their minimum level
  adjust    <account> <product> <set|add|subtract> <qty>
  bills     <account> [paid|pending|cancelled]        50 most recent bills
  report    <account> [day|week|month]                paid sales report`

// Run executes a one-shot CLI command, writing its output to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}
	if len(args) < 2 {
		return fmt.Errorf("%s: account id required\n%s", args[0], usage)
	}
	accountID, err := positiveInt("account", args[1])
	if err != nil {
		return err
	}

	switch args[0] {
	case "stock", "s":
		result, err := svc.ListProducts(ctx, accountID, core.ProductFilter{})
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		printProducts(out, "STOCK LEVELS", accountID, result)

	case "low-stock", "low":
		result, err := svc.LowStock(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to list low stock: %w", err)
		}
		printProducts(out, "LOW STOCK ALERTS", accountID, result)

	case "adjust", "adj":
		if len(args) < 5 {
			return fmt.Errorf("usage: app adjust <account> <product> <set|add|subtract> <qty>")
		}
		productID, err := positiveInt("product", args[2])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[4])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[4])
		}
		p, err := svc.AdjustStock(ctx, app.AdjustStockRequest{
			AccountID: accountID,
			ProductID: productID,
			Operation: args[3],
			Quantity:  qty,
		})
		if err != nil {
			return fmt.Errorf("adjustment failed: %w", err)
		}
		fmt.Fprintf(out, "%s (#%d) quantity is now %d [%s]\n", p.Name, p.ID, p.Quantity, p.StockStatus())

	case "bills", "b":
		filter := core.BillFilter{}
		if len(args) > 2 {
			filter.Status = args[2]
			if !core.ValidBillStatus(filter.Status) {
				return fmt.Errorf("status must be one of: paid, pending, cancelled")
			}
		}
		result, err := svc.ListBills(ctx, accountID, filter)
		if err != nil {
			return fmt.Errorf("failed to list bills: %w", err)
		}
		printBills(out, accountID, result)

	case "report", "r":
		req := app.SalesReportRequest{AccountID: accountID}
		if len(args) > 2 {
			req.GroupBy = args[2]
		}
		result, err := svc.GetSalesReport(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to build sales report: %w", err)
		}
		printSalesReport(out, accountID, result)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func positiveInt(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return n, nil
}
