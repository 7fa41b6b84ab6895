package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/finance"
	"realestate-crm/internal/core/policy"
	"realestate-crm/internal/pkg/password"
	"realestate-crm/internal/pkg/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// ============================================================
// Clients
// ============================================================

func newClientResource(repo repositories.EntityRepository[models.Client], v *validation.Validator) Resource {
	return newResource(domain.KindClient, repo, v, resourceHooks[models.Client]{
		newRow: func() *models.Client {
			return &models.Client{Status: domain.StatusActive}
		},
		ownership: func(c *models.Client) policy.RowOwnership {
			return policy.RowOwnership{ConsultantID: c.ConsultantID, CreatedBy: c.CreatedBy}
		},
		beforeSave: func(ctx context.Context, m mutation, c *models.Client) error {
			if c.ReferredBy != nil && *c.ReferredBy == "" {
				c.ReferredBy = nil
			}
			return nil
		},
	})
}

// ============================================================
// Properties
// ============================================================

func newPropertyResource(repo repositories.EntityRepository[models.Property], v *validation.Validator) Resource {
	return newResource(domain.KindProperty, repo, v, resourceHooks[models.Property]{
		newRow: func() *models.Property {
			return &models.Property{Status: domain.StatusActive, Kind: "land"}
		},
		ownership: func(p *models.Property) policy.RowOwnership {
			return policy.RowOwnership{ConsultantID: p.ConsultantID}
		},
		beforeSave: func(ctx context.Context, m mutation, p *models.Property) error {
			if p.ListingCode == nil || *p.ListingCode == "" {
				p.ListingCode = nil
				return nil
			}
			exists, err := repo.ExistsBy(ctx, "listing_code", *p.ListingCode, p.ID)
			if err != nil {
				return domain.Internal(err)
			}
			if exists {
				return domain.Conflict(fmt.Sprintf("listing_code %q already exists", *p.ListingCode))
			}
			return nil
		},
	})
}

// ============================================================
// Transactions
// ============================================================

func newTransactionResource(repo repositories.EntityRepository[models.Transaction], v *validation.Validator) Resource {
	return newResource(domain.KindTransaction, repo, v, resourceHooks[models.Transaction]{
		newRow: func() *models.Transaction {
			return &models.Transaction{
				Currency:      "TRY",
				Status:        domain.StatusPending,
				PaymentStatus: domain.PaymentPending,
			}
		},
		ownership: func(t *models.Transaction) policy.RowOwnership {
			return policy.RowOwnership{ConsultantID: t.ConsultantID}
		},
		prepare: func(ctx context.Context, m mutation, t *models.Transaction) error {
			if m.op == domain.OpCreate || m.payload.Has("amount") || m.payload.Has("commission_rate") {
				return deriveTransaction(t)
			}
			return nil
		},
		beforeSave: func(ctx context.Context, m mutation, t *models.Transaction) error {
			if t.TransactionCode == nil || *t.TransactionCode == "" {
				t.TransactionCode = nil
				return nil
			}
			exists, err := repo.ExistsBy(ctx, "transaction_code", *t.TransactionCode, t.ID)
			if err != nil {
				return domain.Internal(err)
			}
			if exists {
				return domain.Conflict(fmt.Sprintf("transaction_code %q already exists", *t.TransactionCode))
			}
			return nil
		},
	})
}

// deriveTransaction recomputes commission, tax and net amount in place.
// A missing amount is left to the required-field validation.
func deriveTransaction(t *models.Transaction) error {
	if t.CommissionRate == nil {
		rate := finance.DefaultCommissionRate
		t.CommissionRate = &rate
	}
	if t.Amount == nil {
		return nil
	}

	f, err := finance.ComputeTransactionFinancials(*t.Amount, *t.CommissionRate)
	if err != nil {
		return err
	}
	t.CommissionAmount = f.CommissionAmount
	t.TaxAmount = f.TaxAmount
	t.NetAmount = f.NetAmount
	return nil
}

// ============================================================
// Documents
// ============================================================

func newDocumentResource(repo repositories.EntityRepository[models.Document], v *validation.Validator) Resource {
	return newResource(domain.KindDocument, repo, v, resourceHooks[models.Document]{
		newRow: func() *models.Document {
			return &models.Document{Status: domain.StatusActive, Visibility: domain.VisibilityPublic}
		},
		ownership: func(d *models.Document) policy.RowOwnership {
			return policy.RowOwnership{CreatedBy: d.CreatedBy}
		},
		beforeSave: func(ctx context.Context, m mutation, d *models.Document) error {
			if d.DocumentCode == nil || *d.DocumentCode == "" {
				d.DocumentCode = nil
				return nil
			}
			exists, err := repo.ExistsBy(ctx, "document_code", *d.DocumentCode, d.ID)
			if err != nil {
				return domain.Internal(err)
			}
			if exists {
				return domain.Conflict(fmt.Sprintf("document_code %q already exists", *d.DocumentCode))
			}
			return nil
		},
	})
}

// ============================================================
// Accounting
// ============================================================

func newAccountingResource(repo repositories.AccountingRepository, v *validation.Validator) Resource {
	return newResource[models.AccountingRecord](domain.KindAccounting, repo, v, resourceHooks[models.AccountingRecord]{
		prepare: func(ctx context.Context, m mutation, a *models.AccountingRecord) error {
			applyAccountingTotals(a)
			return nil
		},
		beforeSave: func(ctx context.Context, m mutation, a *models.AccountingRecord) error {
			existing, err := repo.GetByPeriod(ctx, a.Month, a.Year)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return nil
			case err != nil:
				return domain.Internal(err)
			}
			if existing.ID != a.ID {
				return domain.Conflict(fmt.Sprintf("accounting record for %02d/%d already exists", a.Month, a.Year))
			}
			return nil
		},
	})
}

func applyAccountingTotals(a *models.AccountingRecord) {
	totals := finance.ComputeAccountingTotals(finance.AccountingInputs{
		OfficeShare:      a.OfficeShare,
		MonthlyIncome:    a.MonthlyIncome,
		FixedExpenses:    a.FixedExpenses,
		VariableExpenses: a.VariableExpenses,
		Taxes:            a.Taxes,
	})
	a.GrossProfit = totals.GrossProfit
	a.NetProfit = totals.NetProfit
}

// ============================================================
// Users
// ============================================================

// normalizeUser trims identifiers and lower-cases the email so uniqueness
// checks do not depend on the column collation
func normalizeUser(u *models.User) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

func newUserResource(repo repositories.UserRepository, v *validation.Validator) Resource {
	return newResource[models.User](domain.KindUser, repo, v, resourceHooks[models.User]{
		newRow: func() *models.User {
			return &models.User{
				Role:                string(domain.RoleConsultant),
				Status:              domain.StatusActive,
				RevenueSharePercent: finance.DefaultCommissionRate,
			}
		},
		omit:     []string{"password"},
		noDelete: true,
		prepare: func(ctx context.Context, m mutation, u *models.User) error {
			normalizeUser(u)

			if m.op == domain.OpUpdate && u.ID == m.principal.ID {
				if role, ok := m.payload["role"].(string); ok && role != string(m.principal.Role) {
					return domain.Forbidden("cannot change your own role")
				}
				if status, ok := m.payload["status"].(string); ok && status != domain.StatusActive {
					return domain.Forbidden("cannot deactivate your own account")
				}
			}

			if u.RevenueSharePercent.IsNegative() || u.RevenueSharePercent.GreaterThan(hundred) {
				return domain.Validation("revenue_share_percent must be within [0, 100]", "revenue_share_percent")
			}

			if m.op == domain.OpCreate || m.payload.Has("password") {
				raw, _ := m.payload["password"].(string)
				if err := password.Check(raw); err != nil {
					return domain.Validation(err.Error(), "password")
				}
				hashed, err := password.Hash(raw)
				if err != nil {
					return domain.Internal(err)
				}
				u.Password = hashed
			}
			return nil
		},
		beforeSave: func(ctx context.Context, m mutation, u *models.User) error {
			exists, err := repo.ExistsBy(ctx, "username", u.Username, u.ID)
			if err != nil {
				return domain.Internal(err)
			}
			if exists {
				return domain.Conflict("username already exists")
			}

			exists, err = repo.ExistsBy(ctx, "email", u.Email, u.ID)
			if err != nil {
				return domain.Internal(err)
			}
			if exists {
				return domain.Conflict("email already exists")
			}
			return nil
		},
	})
}
