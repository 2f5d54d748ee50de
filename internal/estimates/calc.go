package estimates

import (
	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// ItemTotal derives the stored line total from quantity and unit price,
// rounded half-up to 2 decimal places.
func ItemTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// Totals holds the two derived estimate fields produced by a recalculation.
type Totals struct {
	TotalCost   decimal.Decimal
	FinalAmount decimal.Decimal
}

// ComputeTotals rolls the line totals up through the markup chain:
//
//	total_cost    = Σ item.total_price
//	with_profit   = total_cost  × (1 + profit/100)
//	with_overhead = with_profit × (1 + overhead/100)
//	final_amount  = with_overhead × (1 + vat/100)
//
// The markups compound; they are not additive. Intermediate products keep
// full precision, only the persisted fields are rounded to 2 decimal places.
func ComputeTotals(items []models.EstimateItem, profitMargin, overheadCosts, vatRate decimal.Decimal) Totals {
	totalCost := decimal.Zero
	for _, item := range items {
		totalCost = totalCost.Add(item.TotalPrice)
	}

	withProfit := totalCost.Mul(markupFactor(profitMargin))
	withOverhead := withProfit.Mul(markupFactor(overheadCosts))
	finalAmount := withOverhead.Mul(markupFactor(vatRate))

	return Totals{
		TotalCost:   totalCost.Round(2),
		FinalAmount: finalAmount.Round(2),
	}
}

func markupFactor(percent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(percent.Div(hundred))
}
