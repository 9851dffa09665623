package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStockStatus(t *testing.T) {
	tests := []struct {
		qty, min int
		want     StockStatus
	}{
		{0, 10, StockOut},
		{0, 0, StockOut},
		{1, 10, StockLow},
		{10, 10, StockLow},
		{11, 10, StockIn},
		{1, 0, StockIn},
	}
	for _, tt := range tests {
		p := Product{Quantity: tt.qty, MinStockLevel: tt.min}
		assert.Equal(t, tt.want, p.StockStatus(), "qty=%d min=%d", tt.qty, tt.min)
	}
}

func TestProfitMargin(t *testing.T) {
	assert.True(t, d("50").Equal(Product{Price: d("150"), CostPrice: d("100")}.ProfitMargin()))
	assert.True(t, d("33.33").Equal(Product{Price: d("4"), CostPrice: d("3")}.ProfitMargin()))
	assert.True(t, Product{Price: d("10")}.ProfitMargin().IsZero(), "no cost means no margin")
}

func TestProductJSONIncludesDerivedFields(t *testing.T) {
	raw, err := json.Marshal(Product{ID: 7, Name: "Pen", Quantity: 2, MinStockLevel: 5, Price: d("12"), CostPrice: d("10")})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "low-stock", got["stock_status"])
	assert.Equal(t, "20", got["profit_margin"])
	assert.Equal(t, "Pen", got["name"])
}

func TestBillTotals(t *testing.T) {
	lines := []BillLineInput{
		{ProductID: 1, Quantity: 3, Price: d("100")},
		{ProductID: 2, Quantity: 2, Price: d("2.50")},
	}
	subtotal, total := billTotals(lines, d("10"), d("5"))
	assert.True(t, d("305").Equal(subtotal), "subtotal %s", subtotal)
	assert.True(t, d("310").Equal(total), "total %s", total)

	assert.True(t, d("0.30").Equal(lineTotal(3, d("0.1"))), "decimal math is exact")
}

func TestNormalizeBillInput(t *testing.T) {
	in := CreateBillInput{
		CustomerName:  "  Walk-in ",
		CustomerEmail: " Buyer@Example.COM ",
		PaymentMethod: " UPI ",
	}
	normalizeBillInput(&in)
	assert.Equal(t, "Walk-in", in.CustomerName)
	assert.Equal(t, "buyer@example.com", in.CustomerEmail)
	assert.Equal(t, PaymentUPI, in.PaymentMethod)
	assert.Equal(t, BillStatusPaid, in.Status)

	empty := CreateBillInput{}
	normalizeBillInput(&empty)
	assert.Equal(t, PaymentCash, empty.PaymentMethod)
}

func TestValidateBillInput(t *testing.T) {
	valid := CreateBillInput{
		CustomerName:  "Walk-in",
		Items:         []BillLineInput{{ProductID: 1, Quantity: 3, Price: d("100")}},
		Tax:           d("10"),
		Discount:      d("5"),
		PaymentMethod: PaymentCash,
		Status:        BillStatusPaid,
	}
	subtotal, total, err := validateBillInput(&valid)
	require.NoError(t, err)
	assert.True(t, d("300").Equal(subtotal))
	assert.True(t, d("305").Equal(total))

	// Every problem is reported at once.
	bad := CreateBillInput{
		CustomerEmail: "nope",
		Items: []BillLineInput{
			{ProductID: 0, Quantity: 1},
			{ProductID: 2, Quantity: 0, Price: d("1")},
		},
		Tax:      d("-1"),
		Discount: d("50"),
		Status:   "refunded",
	}
	_, _, err = validateBillInput(&bad)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"customer_name is required",
		"customer_email must be a valid email",
		"items[0].product_id is required",
		"items[1].quantity must be at least 1",
		"tax cannot be negative",
		"status must be one of: paid, pending, cancelled",
		"discount cannot exceed subtotal plus tax",
	}, ve.Problems)
}

func TestValidateBillInput_ZeroTotalAllowed(t *testing.T) {
	in := CreateBillInput{
		CustomerName: "Walk-in",
		Items:        []BillLineInput{{ProductID: 1, Quantity: 1, Price: d("10")}},
		Discount:     d("10"),
	}
	_, total, err := validateBillInput(&in)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestValidateBillInput_MoneyPrecision(t *testing.T) {
	in := CreateBillInput{
		CustomerName: "Walk-in",
		Items: []BillLineInput{
			{ProductID: 1, Quantity: 3, Price: d("0.005")},
			{ProductID: 2, Quantity: 1, Price: d("1.10")},
		},
		Tax:      d("0.333"),
		Discount: d("0.001"),
	}
	_, _, err := validateBillInput(&in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"items[0].price cannot have more than 2 decimal places",
		"tax cannot have more than 2 decimal places",
		"discount cannot have more than 2 decimal places",
	}, ve.Problems)

	// Trailing zeros are not extra precision.
	in.Items[0].Price = d("0.500")
	in.Tax = d("0.30")
	in.Discount = d("0")
	subtotal, _, err := validateBillInput(&in)
	require.NoError(t, err)
	assert.True(t, d("2.60").Equal(subtotal))
}

func TestValidateBillInput_Bounds(t *testing.T) {
	in := CreateBillInput{
		CustomerName: "Walk-in",
		Items: []BillLineInput{
			{ProductID: 1, Quantity: MaxQuantity + 1, Price: d("1")},
			{ProductID: 2, Quantity: 2, Price: d("999999999999.99")},
		},
	}
	_, _, err := validateBillInput(&in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"items[0].quantity cannot exceed 2147483647",
		"bill total cannot exceed 999999999999.99",
	}, ve.Problems)
}

func TestMoneyProblems(t *testing.T) {
	assert.Empty(t, moneyProblems("price", d("12.34")))
	assert.Empty(t, moneyProblems("price", d("999999999999.99")))
	assert.Equal(t, []string{"price cannot have more than 2 decimal places"}, moneyProblems("price", d("12.345")))
	assert.Equal(t, []string{"price cannot exceed 999999999999.99"}, moneyProblems("price", d("1000000000000")))
}

func TestProductInputBounds(t *testing.T) {
	in := ProductInput{Name: "Pen", Category: "Stationery", Price: d("9.999"), Quantity: MaxQuantity + 1}
	err := validateProductInput(&in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"quantity cannot exceed 2147483647",
		"price cannot have more than 2 decimal places",
	}, ve.Problems)
}

func TestSortedUnique(t *testing.T) {
	ids := []int{9, 3, 9, 1}
	assert.Equal(t, []int{1, 3, 9}, sortedUnique(ids))
	assert.Equal(t, []int{9, 3, 9, 1}, ids, "input is left alone")
}

func TestDistinctProductIDs(t *testing.T) {
	ids := distinctProductIDs([]BillLineInput{{ProductID: 9}, {ProductID: 3}, {ProductID: 9}, {ProductID: 1}})
	assert.Equal(t, []int{1, 3, 9}, ids)
}

func TestParseAdjustMode(t *testing.T) {
	for in, want := range map[string]AdjustMode{"": AdjustSet, "set": AdjustSet, "add": AdjustAdd, "subtract": AdjustSubtract} {
		got, err := ParseAdjustMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAdjustMode("ADD")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestApplyAdjustment(t *testing.T) {
	tests := []struct {
		mode     AdjustMode
		current  int
		amount   int
		want     int
		movement string
	}{
		{AdjustSet, 5, 12, 12, MovementAdjustSet},
		{AdjustSet, 5, 0, 0, MovementAdjustSet},
		{AdjustAdd, 5, 3, 8, MovementAdjustAdd},
		{AdjustSubtract, 5, 3, 2, MovementAdjustSubtract},
		{AdjustSubtract, 5, 9, 0, MovementAdjustSubtract},
	}
	for _, tt := range tests {
		got, movement := applyAdjustment(tt.current, tt.mode, tt.amount)
		assert.Equal(t, tt.want, got, "%s %d by %d", tt.mode, tt.current, tt.amount)
		assert.Equal(t, tt.movement, movement)
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	nf := error(&NotFoundError{Entity: "product", Ref: "Pen"})
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.Equal(t, "product not found: Pen", nf.Error())

	dup := error(&DuplicateKeyError{Field: "barcode"})
	assert.True(t, errors.Is(dup, ErrDuplicateKey))

	stock := &InsufficientStockError{ProductName: "Pen", Available: 2, Requested: 3}
	assert.Equal(t, "insufficient stock for Pen. available: 2", stock.Error())

	ve := &ValidationError{Problems: []string{"a is required", "b cannot be negative"}}
	assert.Equal(t, "a is required, b cannot be negative", ve.Error())
}

func TestMergeProblems(t *testing.T) {
	assert.Nil(t, mergeProblems(nil))

	var ve *ValidationError
	require.ErrorAs(t, mergeProblems(nil, "x"), &ve)
	assert.Equal(t, []string{"x"}, ve.Problems)

	merged := mergeProblems(&ValidationError{Problems: []string{"a"}}, "b")
	require.ErrorAs(t, merged, &ve)
	assert.Equal(t, []string{"a", "b"}, ve.Problems)

	other := errors.New("boom")
	assert.Same(t, other, mergeProblems(other, "ignored"))
}
