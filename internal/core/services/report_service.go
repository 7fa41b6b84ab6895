package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/finance"
	"realestate-crm/internal/core/policy"
	"realestate-crm/internal/pkg/export"
	"realestate-crm/internal/pkg/validation"

	"gorm.io/datatypes"
)

// ReportService generates, stores and exports reports
type ReportService struct {
	repos     *repositories.Set
	validator *validation.Validator
	resource  *resource[models.Report]
}

// NewReportService creates a new report service
func NewReportService(repos *repositories.Set, v *validation.Validator) *ReportService {
	s := &ReportService{repos: repos, validator: v}
	s.resource = newResource(domain.KindReport, repos.Reports, v, resourceHooks[models.Report]{
		newRow: func() *models.Report {
			return &models.Report{Status: domain.StatusActive}
		},
		ownership: func(r *models.Report) policy.RowOwnership {
			return policy.RowOwnership{ConsultantID: r.ConsultantID, CreatedBy: r.CreatedBy}
		},
		prepare: s.generate,
	})
	return s
}

// Resource exposes reports to the entity service
func (s *ReportService) Resource() Resource {
	return s.resource
}

// generate fills the payload of a new report. Consultants report on their
// own rows; an admin reports on one consultant when consultant_id was sent
// and on the whole office otherwise.
func (s *ReportService) generate(ctx context.Context, m mutation, r *models.Report) error {
	if m.op != domain.OpCreate {
		return nil
	}

	if r.PeriodStart != nil && r.PeriodEnd != nil && r.PeriodEnd.Before(*r.PeriodStart) {
		return domain.Validation("period_end must not be before period_start", "period_end")
	}

	var scope *string
	switch m.principal.Role {
	case domain.RoleConsultant:
		scope = &m.principal.ID
	case domain.RoleAdmin:
		if id, ok := m.requested["consultant_id"].(string); ok && id != "" {
			scope = &id
		}
	default:
		return domain.Internal(fmt.Errorf("report: unknown role %q", m.principal.Role))
	}

	txs, clients, props, err := s.loadFacts(ctx, scope, r.PeriodStart, r.PeriodEnd)
	if err != nil {
		return err
	}

	payload, err := finance.BuildReportPayload(r.ReportType, txs, clients, props)
	if err != nil {
		return err
	}
	if scope == nil {
		payload["scope"] = "office"
	} else {
		payload["scope"] = *scope
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Internal(err)
	}
	r.Payload = datatypes.JSON(raw)
	return nil
}

func (s *ReportService) loadFacts(ctx context.Context, scope *string, from, to *time.Time) ([]finance.TransactionFacts, []finance.OwnedFacts, []finance.OwnedFacts, error) {
	txRows, _, err := s.repos.Transactions.List(ctx, repositories.ListFilter{
		ConsultantID: scope, DateColumn: "transaction_date", From: from, To: to,
	})
	if err != nil {
		return nil, nil, nil, domain.Internal(err)
	}
	clientRows, _, err := s.repos.Clients.List(ctx, repositories.ListFilter{
		ConsultantID: scope, DateColumn: "created_at", From: from, To: to,
	})
	if err != nil {
		return nil, nil, nil, domain.Internal(err)
	}
	propRows, _, err := s.repos.Properties.List(ctx, repositories.ListFilter{
		ConsultantID: scope, DateColumn: "created_at", From: from, To: to,
	})
	if err != nil {
		return nil, nil, nil, domain.Internal(err)
	}

	return transactionFacts(txRows), clientFacts(clientRows), propertyFacts(propRows), nil
}

// Export writes the report as an xlsx workbook and returns the file name
func (s *ReportService) Export(ctx context.Context, p *domain.Principal, id string, w io.Writer) (string, error) {
	row, err := s.resource.fetch(ctx, p, domain.OpGet, id)
	if err != nil {
		return "", err
	}

	var payload map[string]interface{}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return "", domain.Internal(err)
		}
	}

	summary := export.Sheet{
		Name:     "Summary",
		Headings: []string{"Field", "Value"},
		Rows: [][]interface{}{
			{"Title", row.Title},
			{"Report type", row.ReportType},
			{"Period start", formatDate(row.PeriodStart)},
			{"Period end", formatDate(row.PeriodEnd)},
			{"Generated at", row.CreatedAt.Format(time.RFC3339)},
		},
	}
	metrics := export.Sheet{
		Name:     "Metrics",
		Headings: []string{"Metric", "Value"},
		Rows:     flattenMetrics("", payload),
	}

	if err := export.WriteXLSX(w, summary, metrics); err != nil {
		return "", domain.Internal(err)
	}
	return fmt.Sprintf("report-%s-%s.xlsx", row.ReportType, row.ID), nil
}

// flattenMetrics turns nested payload maps into dotted metric names
func flattenMetrics(prefix string, m map[string]interface{}) [][]interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows [][]interface{}
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		if nested, ok := m[k].(map[string]interface{}); ok {
			rows = append(rows, flattenMetrics(name, nested)...)
			continue
		}
		rows = append(rows, []interface{}{name, m[k]})
	}
	return rows
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func transactionFacts(rows []*models.Transaction) []finance.TransactionFacts {
	out := make([]finance.TransactionFacts, 0, len(rows))
	for _, t := range rows {
		f := finance.TransactionFacts{
			ConsultantID:     t.ConsultantID,
			CommissionAmount: t.CommissionAmount,
			Status:           t.Status,
		}
		if t.Amount != nil {
			f.Amount = *t.Amount
		}
		out = append(out, f)
	}
	return out
}

func clientFacts(rows []*models.Client) []finance.OwnedFacts {
	out := make([]finance.OwnedFacts, 0, len(rows))
	for _, c := range rows {
		out = append(out, finance.OwnedFacts{ConsultantID: c.ConsultantID, Status: c.Status})
	}
	return out
}

func propertyFacts(rows []*models.Property) []finance.OwnedFacts {
	out := make([]finance.OwnedFacts, 0, len(rows))
	for _, p := range rows {
		out = append(out, finance.OwnedFacts{ConsultantID: p.ConsultantID, Status: p.Status})
	}
	return out
}
