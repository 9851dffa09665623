package core_test

import (
	"context"
	"testing"

	"shopdesk/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productInput(name, category string, qty int) core.ProductInput {
	return core.ProductInput{
		Name:      name,
		Category:  category,
		Price:     dec("120"),
		CostPrice: dec("100"),
		Quantity:  qty,
	}
}

func TestProduct_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	in := productInput(" Blue Pen ", "Stationery", 40)
	in.Barcode = "8901234"
	p, err := products.CreateProduct(ctx, shopA, in)
	require.NoError(t, err)

	assert.Equal(t, "Blue Pen", p.Name)
	assert.Equal(t, core.DefaultMinStockLevel, p.MinStockLevel)
	assert.True(t, p.IsActive)
	assert.True(t, dec("20").Equal(p.ProfitMargin()))

	got, err := products.GetProduct(ctx, shopA, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = products.GetProduct(ctx, shopB, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProduct_DuplicateBarcode(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	in := productInput("Pen", "Stationery", 1)
	in.Barcode = "dup-1"
	_, err := products.CreateProduct(ctx, shopA, in)
	require.NoError(t, err)

	in.Name = "Other Pen"
	_, err = products.CreateProduct(ctx, shopB, in)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.EqualError(t, err, "barcode already exists")

	// Empty barcodes never collide.
	_, err = products.CreateProduct(ctx, shopA, productInput("No Code A", "Stationery", 1))
	require.NoError(t, err)
	_, err = products.CreateProduct(ctx, shopA, productInput("No Code B", "Stationery", 1))
	require.NoError(t, err)
}

func TestProduct_Validation(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	in := productInput("P", "", -1)
	in.Price = dec("-5")
	in.ImageURL = "not a url"
	_, err := products.CreateProduct(ctx, shopA, in)

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Problems, "name must be at least 2 characters long")
	assert.Contains(t, ve.Problems, "category is required")
	assert.Contains(t, ve.Problems, "price cannot be negative")
	assert.Contains(t, ve.Problems, "quantity cannot be negative")
	assert.Contains(t, ve.Problems, "image_url must be a valid URL")
}

func TestProduct_UpdateKeepsThresholdWhenOmitted(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	in := productInput("Pen", "Stationery", 5)
	three := 3
	in.MinStockLevel = &three
	p, err := products.CreateProduct(ctx, shopA, in)
	require.NoError(t, err)

	update := productInput("Gel Pen", "Stationery", 8)
	updated, err := products.UpdateProduct(ctx, shopA, p.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Gel Pen", updated.Name)
	assert.Equal(t, 8, updated.Quantity)
	assert.Equal(t, 3, updated.MinStockLevel)

	_, err = products.UpdateProduct(ctx, shopB, p.ID, update)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProduct_UpdateQuantityGoesThroughLedger(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	ledger := core.NewInventoryLedger(pool)
	products := core.NewProductService(pool, ledger)
	billing := core.NewBillingService(pool, ledger, "BILL")

	p, err := products.CreateProduct(ctx, shopA, productInput("Notebook", "Stationery", 5))
	require.NoError(t, err)

	// A client reads q=5, a bill sells 3, then the client saves its stale copy.
	stale := productInput("Notebook", "Stationery", 5)
	_, err = billing.CreateBill(ctx, shopA, core.CreateBillInput{
		CustomerName: "Walk-in",
		Items:        []core.BillLineInput{{ProductID: p.ID, Quantity: 3, Price: dec("120")}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, quantityOf(t, pool, p.ID))

	updated, err := products.UpdateProduct(ctx, shopA, p.ID, stale)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	movements, err := ledger.ListMovements(ctx, shopA, p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, core.MovementAdjustSet, movements[0].MovementType)
	assert.Equal(t, 3, movements[0].Delta, "the restored stock is on the audit trail")
	assert.Equal(t, 5, movements[0].QuantityAfter)
	assert.Equal(t, core.MovementSale, movements[1].MovementType)
	assert.Equal(t, core.MovementInitial, movements[2].MovementType)
	assert.Equal(t, 5, movements[2].Delta)

	// Saving the stored quantity unchanged writes no movement.
	rename := productInput("Ruled Notebook", "Stationery", 5)
	_, err = products.UpdateProduct(ctx, shopA, p.ID, rename)
	require.NoError(t, err)
	movements, err = ledger.ListMovements(ctx, shopA, p.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 3)
}

func TestProduct_CreateWithoutStockHasNoMovement(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	_, err := products.CreateProduct(ctx, shopA, productInput("Pen", "Stationery", 0))
	require.NoError(t, err)
	assert.Zero(t, countMovements(t, pool))
}

func TestProduct_MoneyAndQuantityBounds(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	in := productInput("Pen", "Stationery", 1)
	in.Price = dec("10.005")
	in.CostPrice = dec("1000000000000")
	_, err := products.CreateProduct(ctx, shopA, in)
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"price cannot have more than 2 decimal places",
		"cost_price cannot exceed 999999999999.99",
	}, ve.Problems)

	p, err := products.CreateProduct(ctx, shopA, productInput("Pen", "Stationery", 1))
	require.NoError(t, err)
	huge := productInput("Pen", "Stationery", core.MaxQuantity+1)
	_, err = products.UpdateProduct(ctx, shopA, p.ID, huge)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"quantity cannot exceed 2147483647"}, ve.Problems)
	assert.Equal(t, 1, quantityOf(t, pool, p.ID))
}

func TestProduct_DeactivateHidesEverywhere(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	p, err := products.CreateProduct(ctx, shopA, productInput("Pen", "Stationery", 0))
	require.NoError(t, err)

	require.NoError(t, products.DeactivateProduct(ctx, shopA, p.ID))
	assert.ErrorIs(t, products.DeactivateProduct(ctx, shopA, p.ID), core.ErrNotFound)

	_, err = products.GetProduct(ctx, shopA, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := products.ListProducts(ctx, shopA, core.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	low, err := products.LowStock(ctx, shopA)
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestProduct_ListFiltersAndCategories(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	products := core.NewProductService(pool, core.NewInventoryLedger(pool))

	two := 2
	mk := func(name, category string, qty int) {
		in := productInput(name, category, qty)
		in.MinStockLevel = &two
		_, err := products.CreateProduct(ctx, shopA, in)
		require.NoError(t, err)
	}
	mk("Empty Pen", "Stationery", 0)
	mk("Low Pen", "Stationery", 2)
	mk("Full Pen", "Stationery", 9)
	mk("Mug", "Kitchen", 1)
	_, err := products.CreateProduct(ctx, shopB, productInput("Foreign", "Stationery", 1))
	require.NoError(t, err)

	all, err := products.ListProducts(ctx, shopA, core.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	stationery, err := products.ListProducts(ctx, shopA, core.ProductFilter{Category: "STATIONERY"})
	require.NoError(t, err)
	assert.Len(t, stationery, 3, "category match is case-insensitive")

	for status, want := range map[core.StockStatus]int{core.StockOut: 1, core.StockLow: 2, core.StockIn: 1} {
		got, err := products.ListProducts(ctx, shopA, core.ProductFilter{StockStatus: status})
		require.NoError(t, err)
		assert.Len(t, got, want, "status %s", status)
		for _, p := range got {
			assert.Equal(t, status, p.StockStatus())
		}
	}

	var ve *core.ValidationError
	_, err = products.ListProducts(ctx, shopA, core.ProductFilter{StockStatus: "plenty"})
	assert.ErrorAs(t, err, &ve)

	low, err := products.LowStock(ctx, shopA)
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, "Empty Pen", low[0].Name, "emptiest first")
	assert.Equal(t, "Mug", low[1].Name)

	categories, err := products.Categories(ctx, shopA)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen", "Stationery"}, categories)
}
