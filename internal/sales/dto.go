package sales

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/money"
)

// flexValue accepts a JSON number or string and keeps its text, so that
// malformed input reaches the clamping rules instead of failing decoding.
type flexValue struct {
	raw string
}

func (f *flexValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.raw = s
		return nil
	}
	f.raw = string(b)
	return nil
}

func (f *flexValue) text() *string {
	if f == nil {
		return nil
	}
	return &f.raw
}

type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type updateLineRequest struct {
	Quantity        *flexValue `json:"quantity"`
	UnitPrice       *flexValue `json:"unit_price"`
	DiscountPercent *flexValue `json:"discount_percent"`
}

func (r updateLineRequest) toUpdate() LineUpdate {
	return ParseLineUpdate(RawLineUpdate{
		Quantity:        r.Quantity.text(),
		UnitPrice:       r.UnitPrice.text(),
		DiscountPercent: r.DiscountPercent.text(),
	})
}

type commitRequest struct {
	OverallDiscount *flexValue `json:"overall_discount"`
}

// discount returns the overall discount; missing or non-numeric input is zero.
func (r commitRequest) discount() decimal.Decimal {
	if r.OverallDiscount == nil {
		return decimal.Zero
	}
	d, _ := money.Parse(r.OverallDiscount.raw)
	return d
}

type validateResponse struct {
	CartView
	Valid bool `json:"valid"`
}

type presenceResponse struct {
	Date     string `json:"date"`
	HasSales bool   `json:"has_sales"`
}

type summaryResponse struct {
	From string         `json:"from,omitempty"`
	To   string         `json:"to,omitempty"`
	Days []DailySummary `json:"days"`
}
