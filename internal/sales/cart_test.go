package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/retailpad/retailpad/internal/money"
	"github.com/retailpad/retailpad/internal/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestAddLineMergesSameProduct(t *testing.T) {
	cart := NewCart()
	widget := Product{Ref: uuid.New(), Name: "Widget", Price: d("10")}

	first := cart.AddLine(widget, 2)
	second := cart.AddLine(widget, 3)

	require.Len(t, cart.Lines, 1)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5, cart.Lines[0].Quantity)
	requireDec(t, "50", cart.Lines[0].LineTotal)

	cart.AddLine(Product{Ref: uuid.New(), Name: "Gadget", Price: d("25")}, 0)
	require.Len(t, cart.Lines, 2)
	require.Equal(t, 1, cart.Lines[1].Quantity)
}

func TestAddLineKeepsEditedPriceOnMerge(t *testing.T) {
	cart := NewCart()
	p := Product{Ref: uuid.New(), Name: "Widget", Price: d("10")}
	line := cart.AddLine(p, 1)
	price := d("8")
	_, err := cart.UpdateLine(line.ID, LineUpdate{UnitPrice: &price})
	require.NoError(t, err)

	cart.AddLine(p, 1)
	requireDec(t, "8", cart.Lines[0].UnitPrice)
	requireDec(t, "16", cart.Lines[0].LineTotal)
}

func TestUpdateLineClamps(t *testing.T) {
	cart := NewCart()
	line := cart.AddLine(Product{Ref: uuid.New(), Name: "Widget", Price: d("10")}, 3)

	zero := 0
	updated, err := cart.UpdateLine(line.ID, LineUpdate{Quantity: &zero})
	require.NoError(t, err)
	require.Equal(t, 1, updated.Quantity)

	neg := d("-4")
	updated, err = cart.UpdateLine(line.ID, LineUpdate{UnitPrice: &neg})
	require.NoError(t, err)
	require.True(t, updated.UnitPrice.IsZero())
	require.True(t, updated.LineTotal.IsZero())

	price := d("20")
	over := d("150")
	updated, err = cart.UpdateLine(line.ID, LineUpdate{UnitPrice: &price, DiscountPercent: &over})
	require.NoError(t, err)
	requireDec(t, "100", updated.DiscountPercent)
	require.True(t, updated.LineTotal.IsZero())

	_, err = cart.UpdateLine(uuid.New(), LineUpdate{Quantity: &zero})
	require.ErrorIs(t, err, ErrLineNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestParseLineUpdateDefaults(t *testing.T) {
	u := ParseLineUpdate(RawLineUpdate{
		Quantity:        strPtr("abc"),
		UnitPrice:       strPtr("n/a"),
		DiscountPercent: strPtr(""),
	})
	require.Equal(t, 1, *u.Quantity)
	require.True(t, u.UnitPrice.IsZero())
	require.True(t, u.DiscountPercent.IsZero())

	u = ParseLineUpdate(RawLineUpdate{Quantity: strPtr("4.7"), UnitPrice: strPtr("12.5")})
	require.Equal(t, 4, *u.Quantity)
	requireDec(t, "12.5", *u.UnitPrice)
	require.Nil(t, u.DiscountPercent)

	cart := NewCart()
	line := cart.AddLine(Product{Ref: uuid.New(), Name: "Widget", Price: d("10")}, 3)
	updated, err := cart.UpdateLine(line.ID, ParseLineUpdate(RawLineUpdate{Quantity: strPtr("0")}))
	require.NoError(t, err)
	require.Equal(t, 1, updated.Quantity)
}

func TestRemoveLineLeavesOthers(t *testing.T) {
	cart := NewCart()
	a := cart.AddLine(Product{Ref: uuid.New(), Name: "A", Price: d("3")}, 1)
	b := cart.AddLine(Product{Ref: uuid.New(), Name: "B", Price: d("4")}, 2)

	require.NoError(t, cart.RemoveLine(a.ID))
	require.Len(t, cart.Lines, 1)
	require.Equal(t, b.ID, cart.Lines[0].ID)
	requireDec(t, "8", cart.Lines[0].LineTotal)
	require.ErrorIs(t, cart.RemoveLine(a.ID), ErrLineNotFound)
}

func TestTotals(t *testing.T) {
	cart := NewCart()
	cart.AddLine(Product{Ref: uuid.New(), Name: "Widget", Price: d("10.00")}, 3)
	gadget := cart.AddLine(Product{Ref: uuid.New(), Name: "Gadget", Price: d("25.00")}, 1)

	totals := cart.Totals(money.DefaultPolicy, decimal.Zero)
	requireDec(t, "55", totals.Subtotal)
	require.True(t, totals.TotalDiscount.IsZero())
	requireDec(t, "55", totals.FinalTotal)

	totals = cart.Totals(money.DefaultPolicy, d("5"))
	requireDec(t, "5", totals.TotalDiscount)
	requireDec(t, "50", totals.FinalTotal)

	pct := d("20")
	_, err := cart.UpdateLine(gadget.ID, LineUpdate{DiscountPercent: &pct})
	require.NoError(t, err)
	totals = cart.Totals(money.DefaultPolicy, d("5"))
	requireDec(t, "55", totals.Subtotal)
	requireDec(t, "5", totals.LineDiscount)
	requireDec(t, "10", totals.TotalDiscount)
	requireDec(t, "45", totals.FinalTotal)

	totals = cart.Totals(money.DefaultPolicy, d("500"))
	require.True(t, totals.FinalTotal.IsZero())
	require.True(t, totals.FinalTotal.Equal(decimal.Max(decimal.Zero, totals.Subtotal.Sub(totals.TotalDiscount))))

	totals = cart.Totals(money.DefaultPolicy, d("-3"))
	require.True(t, totals.OverallDiscount.IsZero())
}

func TestTotalsNeverNegative(t *testing.T) {
	cart := NewCart()
	for i := 0; i < 5; i++ {
		line := cart.AddLine(Product{Ref: uuid.New(), Name: "P", Price: decimal.NewFromInt(int64(i * 7))}, i+1)
		pct := decimal.NewFromInt(int64(i * 30))
		_, err := cart.UpdateLine(line.ID, LineUpdate{DiscountPercent: &pct})
		require.NoError(t, err)
		for _, overall := range []string{"0", "1", "33.33", "1000"} {
			totals := cart.Totals(money.DefaultPolicy, d(overall))
			require.False(t, totals.FinalTotal.IsNegative())
			require.True(t, totals.FinalTotal.Equal(decimal.Max(decimal.Zero, totals.Subtotal.Sub(totals.TotalDiscount))))
		}
	}
}

func TestClearRotatesToken(t *testing.T) {
	cart := NewCart()
	token := cart.CommitToken
	cart.AddLine(Product{Ref: uuid.New(), Name: "A", Price: d("1")}, 1)
	cart.Clear()
	require.True(t, cart.IsEmpty())
	require.NotEqual(t, token, cart.CommitToken)
}

func TestEditsRotateToken(t *testing.T) {
	cart := NewCart()
	token := cart.CommitToken
	widget := cart.AddLine(Product{Ref: uuid.New(), Name: "Widget", Price: d("10")}, 3)
	require.NotEqual(t, token, cart.CommitToken)

	token = cart.CommitToken
	qty := 5
	_, err := cart.UpdateLine(widget.ID, LineUpdate{Quantity: &qty})
	require.NoError(t, err)
	require.NotEqual(t, token, cart.CommitToken)

	token = cart.CommitToken
	_, err = cart.UpdateLine(uuid.New(), LineUpdate{Quantity: &qty})
	require.ErrorIs(t, err, ErrLineNotFound)
	require.Equal(t, token, cart.CommitToken)

	require.NoError(t, cart.RemoveLine(widget.ID))
	require.NotEqual(t, token, cart.CommitToken)
}

func TestQuantityIsCapped(t *testing.T) {
	cart := NewCart()
	widget := Product{Ref: uuid.New(), Name: "Widget", Price: d("1")}
	cart.AddLine(widget, MaxQuantity-1)
	line := cart.AddLine(widget, MaxQuantity)
	require.Equal(t, MaxQuantity, line.Quantity)

	u := ParseLineUpdate(RawLineUpdate{Quantity: strPtr("99999999999999999999999")})
	require.Equal(t, MaxQuantity, *u.Quantity)
	u = ParseLineUpdate(RawLineUpdate{Quantity: strPtr("-99999999999999999999999")})
	require.Equal(t, 1, *u.Quantity)

	huge := int(^uint(0) >> 1)
	updated, err := cart.UpdateLine(line.ID, LineUpdate{Quantity: &huge})
	require.NoError(t, err)
	require.Equal(t, MaxQuantity, updated.Quantity)
}

func TestTotalsSettleSubCentPrices(t *testing.T) {
	cart := NewCart()
	cart.AddLine(Product{Ref: uuid.New(), Name: "Bolt", Price: d("0.125")}, 1)
	nut := cart.AddLine(Product{Ref: uuid.New(), Name: "Nut", Price: d("0.125")}, 1)
	pct := d("33.3333")
	_, err := cart.UpdateLine(nut.ID, LineUpdate{DiscountPercent: &pct})
	require.NoError(t, err)

	totals := cart.Totals(money.DefaultPolicy, decimal.Zero)
	requireDec(t, "0.26", totals.Subtotal)
	requireDec(t, "0.04", totals.LineDiscount)
	requireDec(t, "0.22", totals.FinalTotal)

	gross, net := decimal.Zero, decimal.Zero
	for _, l := range cart.Lines {
		settled := l.Settle(money.DefaultPolicy)
		require.True(t, settled.Gross.Equal(settled.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))))
		require.False(t, settled.Total.GreaterThan(settled.Gross))
		gross = gross.Add(settled.Gross)
		net = net.Add(settled.Total)
	}
	require.True(t, totals.Subtotal.Equal(gross))
	require.True(t, totals.FinalTotal.Equal(net))
	require.False(t, totals.TotalDiscount.IsNegative())
}
