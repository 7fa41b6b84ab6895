// Package finance holds the pure money calculations of the CRM: transaction
// commission and tax, commission splits, accounting totals and dashboard
// aggregates. Nothing here performs I/O.
package finance

import (
	"realestate-crm/internal/core/domain"

	"github.com/shopspring/decimal"
)

var (
	// TaxRate is the VAT applied to the commission (18%)
	TaxRate = decimal.RequireFromString("0.18")

	// DefaultCommissionRate is used when a transaction omits commission_rate
	DefaultCommissionRate = decimal.NewFromInt(3)

	hundred = decimal.NewFromInt(100)
)

// Financials are the server-derived fields of a transaction
type Financials struct {
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
}

// Round2 rounds half away from zero to two places. For the non-negative
// amounts handled here that is half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeTransactionFinancials derives commission, tax and net amount.
// Each step is rounded on its own, so later steps see rounded inputs.
func ComputeTransactionFinancials(amount, commissionRatePercent decimal.Decimal) (Financials, error) {
	var bad []string
	if amount.IsNegative() {
		bad = append(bad, "amount")
	}
	if commissionRatePercent.IsNegative() || commissionRatePercent.GreaterThan(hundred) {
		bad = append(bad, "commission_rate")
	}
	if len(bad) > 0 {
		return Financials{}, domain.Validation("amount must be >= 0 and commission_rate within [0, 100]", bad...)
	}

	commission := Round2(amount.Mul(commissionRatePercent).Div(hundred))
	tax := Round2(commission.Mul(TaxRate))
	net := Round2(amount.Sub(commission).Sub(tax))

	return Financials{
		CommissionAmount: commission,
		TaxAmount:        tax,
		NetAmount:        net,
	}, nil
}

// SplitCommission divides a commission between the consultant and the office.
// The office receives whatever the rounded consultant share leaves over.
func SplitCommission(commission, consultantSharePercent decimal.Decimal) (consultant, office decimal.Decimal) {
	share := consultantSharePercent
	if share.IsNegative() {
		share = decimal.Zero
	}
	if share.GreaterThan(hundred) {
		share = hundred
	}
	consultant = Round2(commission.Mul(share).Div(hundred))
	office = Round2(commission.Sub(consultant))
	return consultant, office
}
