package finance

import (
	"fmt"
	"sort"

	"realestate-crm/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ReportPayload is the generated body of a report, keyed by metric name
type ReportPayload map[string]interface{}

// BuildReportPayload computes the metrics for a report type over rows that
// the caller already scoped and filtered by period.
func BuildReportPayload(reportType string, transactions []TransactionFacts, clients, properties []OwnedFacts) (ReportPayload, error) {
	switch reportType {
	case domain.ReportRevenue:
		return revenuePayload(transactions), nil
	case domain.ReportTransaction:
		return ReportPayload{
			"transaction_count": int64(len(transactions)),
			"by_status":         countTransactionsByStatus(transactions),
		}, nil
	case domain.ReportClientCount:
		return ReportPayload{
			"client_count": int64(len(clients)),
			"by_status":    countByStatus(clients),
		}, nil
	case domain.ReportPropertyCount:
		return ReportPayload{
			"property_count": int64(len(properties)),
			"by_status":      countByStatus(properties),
		}, nil
	case domain.ReportInvestor:
		p := revenuePayload(transactions)
		p["client_count"] = int64(len(clients))
		p["property_count"] = int64(len(properties))
		p["properties_by_status"] = countByStatus(properties)
		return p, nil
	}
	return nil, domain.Validation(fmt.Sprintf("unknown report type %q", reportType), "report_type")
}

func revenuePayload(transactions []TransactionFacts) ReportPayload {
	volume := decimal.Zero
	commission := decimal.Zero
	var completed int64
	for _, t := range transactions {
		if t.Status != domain.StatusCompleted {
			continue
		}
		volume = volume.Add(t.Amount)
		commission = commission.Add(t.CommissionAmount)
		completed++
	}
	return ReportPayload{
		"total_volume":           volume.StringFixed(2),
		"total_commission":       commission.StringFixed(2),
		"completed_transactions": completed,
	}
}

func countTransactionsByStatus(transactions []TransactionFacts) map[string]int64 {
	out := make(map[string]int64)
	for _, t := range transactions {
		out[t.Status]++
	}
	return out
}

func countByStatus(rows []OwnedFacts) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range rows {
		out[r.Status]++
	}
	return out
}

// SortedKeys returns the payload keys in a stable order for rendering
func (p ReportPayload) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
