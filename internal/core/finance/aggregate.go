package finance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TransactionFacts is the subset of a transaction the aggregations need
type TransactionFacts struct {
	ConsultantID     string
	Amount           decimal.Decimal
	CommissionAmount decimal.Decimal
	Status           string
}

// OwnedFacts is the subset of a client/property row the aggregations need
type OwnedFacts struct {
	ConsultantID string
	Status       string
}

// DashboardStats is the aggregate shown on the dashboard
type DashboardStats struct {
	TotalRevenue      string `json:"total_revenue"`
	TotalTransactions int64  `json:"total_transactions"`
	TotalClients      int64  `json:"total_clients"`
	TotalProperties   int64  `json:"total_properties"`
}

// AggregateDashboardStats sums transaction amounts and counts rows, restricted
// to scopeConsultantID when it is non-nil. The total carries two decimals;
// an empty set yields "0".
func AggregateDashboardStats(transactions []TransactionFacts, clients, properties []OwnedFacts, scopeConsultantID *string) DashboardStats {
	inScope := func(owner string) bool {
		return scopeConsultantID == nil || owner == *scopeConsultantID
	}

	revenue := decimal.Zero
	var stats DashboardStats
	for _, t := range transactions {
		if !inScope(t.ConsultantID) {
			continue
		}
		revenue = revenue.Add(t.Amount)
		stats.TotalTransactions++
	}
	for _, c := range clients {
		if inScope(c.ConsultantID) {
			stats.TotalClients++
		}
	}
	for _, p := range properties {
		if inScope(p.ConsultantID) {
			stats.TotalProperties++
		}
	}
	stats.TotalRevenue = "0"
	if stats.TotalTransactions > 0 {
		stats.TotalRevenue = revenue.StringFixed(2)
	}
	return stats
}

// RevenueSummary is the per-consultant roll-up of completed transactions
type RevenueSummary struct {
	ConsultantID      string          `json:"consultant_id"`
	Revenue           decimal.Decimal `json:"revenue"`
	ConsultantShare   decimal.Decimal `json:"consultant_share"`
	OfficeShare       decimal.Decimal `json:"office_share"`
	TransactionCount  int64           `json:"transaction_count"`
	TransactionVolume decimal.Decimal `json:"transaction_volume"`
}

// SummarizeConsultantRevenue rolls up completed transactions per consultant.
// sharePercents maps consultant id to revenue_share_percent; consultants
// missing from the map get DefaultCommissionRate as their share.
func SummarizeConsultantRevenue(transactions []TransactionFacts, sharePercents map[string]decimal.Decimal) []RevenueSummary {
	byConsultant := make(map[string]*RevenueSummary)
	for _, t := range transactions {
		if t.Status != "completed" {
			continue
		}
		s, ok := byConsultant[t.ConsultantID]
		if !ok {
			s = &RevenueSummary{ConsultantID: t.ConsultantID}
			byConsultant[t.ConsultantID] = s
		}
		share, ok := sharePercents[t.ConsultantID]
		if !ok {
			share = DefaultCommissionRate
		}
		consultant, office := SplitCommission(t.CommissionAmount, share)
		s.Revenue = s.Revenue.Add(t.CommissionAmount)
		s.ConsultantShare = s.ConsultantShare.Add(consultant)
		s.OfficeShare = s.OfficeShare.Add(office)
		s.TransactionVolume = s.TransactionVolume.Add(t.Amount)
		s.TransactionCount++
	}

	out := make([]RevenueSummary, 0, len(byConsultant))
	for _, s := range byConsultant {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsultantID < out[j].ConsultantID })
	return out
}

// AccountingInputs are the editable money columns of a monthly record
type AccountingInputs struct {
	OfficeShare      decimal.Decimal
	MonthlyIncome    decimal.Decimal
	FixedExpenses    decimal.Decimal
	VariableExpenses decimal.Decimal
	Taxes            decimal.Decimal
}

// AccountingTotals are the derived columns of a monthly record
type AccountingTotals struct {
	GrossProfit decimal.Decimal
	NetProfit   decimal.Decimal
}

// ComputeAccountingTotals derives gross and net profit for a month
func ComputeAccountingTotals(in AccountingInputs) AccountingTotals {
	gross := Round2(in.OfficeShare.Add(in.MonthlyIncome).Sub(in.FixedExpenses).Sub(in.VariableExpenses))
	net := Round2(gross.Sub(in.Taxes))
	return AccountingTotals{GrossProfit: gross, NetProfit: net}
}
