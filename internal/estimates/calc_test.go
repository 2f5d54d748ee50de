package estimates

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func itemWithTotal(total string) models.EstimateItem {
	return models.EstimateItem{TotalPrice: dec(total)}
}

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		want      string
	}{
		{"whole numbers", "10", "100", "1000"},
		{"fractional quantity", "2.5", "99.99", "249.98"},
		{"rounds half up", "0.125", "100", "12.5"},
		{"third decimal rounds", "1.333", "3", "4"},
		{"zero quantity", "0", "500", "0"},
	}

	for _, tt := range tests {
		got := ItemTotal(dec(tt.quantity), dec(tt.unitPrice))
		if !got.Equal(dec(tt.want)) {
			t.Fatalf("%s: expected %s got %s", tt.name, tt.want, got)
		}
	}
}

func TestComputeTotalsSingleItemChain(t *testing.T) {
	// 1000 → ×1.20 = 1200 → ×1.15 = 1380 → ×1.20 = 1656
	items := []models.EstimateItem{itemWithTotal("1000")}
	totals := ComputeTotals(items, dec("20"), dec("15"), dec("20"))

	if !totals.TotalCost.Equal(dec("1000")) {
		t.Fatalf("expected total cost 1000 got %s", totals.TotalCost)
	}
	if !totals.FinalAmount.Equal(dec("1656")) {
		t.Fatalf("expected final amount 1656 got %s", totals.FinalAmount)
	}
}

func TestComputeTotalsZeroItems(t *testing.T) {
	totals := ComputeTotals(nil, dec("20"), dec("15"), dec("20"))
	if !totals.TotalCost.IsZero() {
		t.Fatalf("expected zero total cost got %s", totals.TotalCost)
	}
	if !totals.FinalAmount.IsZero() {
		t.Fatalf("expected zero final amount got %s", totals.FinalAmount)
	}
}

func TestComputeTotalsSumsMultipleItems(t *testing.T) {
	items := []models.EstimateItem{
		itemWithTotal("100"), // 2 × 50
		itemWithTotal("30"),  // 3 × 10
	}
	totals := ComputeTotals(items, dec("0"), dec("0"), dec("0"))
	if !totals.TotalCost.Equal(dec("130")) {
		t.Fatalf("expected total cost 130 got %s", totals.TotalCost)
	}
	if !totals.FinalAmount.Equal(dec("130")) {
		t.Fatalf("expected final amount 130 with zero markups got %s", totals.FinalAmount)
	}
}

func TestComputeTotalsMarkupsCompound(t *testing.T) {
	items := []models.EstimateItem{itemWithTotal("1000")}
	totals := ComputeTotals(items, dec("20"), dec("15"), dec("20"))

	// Additive markups would give 1000 × 1.55 = 1550; the chain compounds.
	additive := dec("1550")
	if totals.FinalAmount.Equal(additive) {
		t.Fatalf("markups must compound, got additive result %s", totals.FinalAmount)
	}
	if !totals.FinalAmount.GreaterThan(additive) {
		t.Fatalf("compounded amount %s should exceed additive %s", totals.FinalAmount, additive)
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	items := []models.EstimateItem{itemWithTotal("333.33"), itemWithTotal("666.67")}
	first := ComputeTotals(items, dec("12.5"), dec("7.25"), dec("20"))
	second := ComputeTotals(items, dec("12.5"), dec("7.25"), dec("20"))

	if !first.TotalCost.Equal(second.TotalCost) || !first.FinalAmount.Equal(second.FinalAmount) {
		t.Fatalf("recalculation must be idempotent: %v vs %v", first, second)
	}
}

func TestComputeTotalsRoundsPersistedFieldsOnly(t *testing.T) {
	// 100.555 × 1.1 = 110.6105; only the final write is rounded.
	items := []models.EstimateItem{itemWithTotal("100.555")}
	totals := ComputeTotals(items, dec("10"), dec("0"), dec("0"))

	if totals.TotalCost.Exponent() < -2 {
		t.Fatalf("total cost must carry at most 2 decimal places, got %s", totals.TotalCost)
	}
	if !totals.FinalAmount.Equal(dec("110.61")) {
		t.Fatalf("expected 110.61 got %s", totals.FinalAmount)
	}
}
