package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/validation"
	"realestate-crm/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	repos    *repositories.Set
	entities *EntityService
	reports  *ReportService

	admin *domain.Principal
	cons1 *domain.Principal
	cons2 *domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	repos := repositories.NewSet(db)
	v := validation.New("TR")
	reports := NewReportService(repos, v)

	return &fixture{
		db:       db,
		repos:    repos,
		entities: NewEntityService(repos, v, reports, testutil.Logger()),
		reports:  reports,
		admin:    testutil.Principal(testutil.CreateUser(t, db, "admin", domain.RoleAdmin)),
		cons1:    testutil.Principal(testutil.CreateUser(t, db, "cons1", domain.RoleConsultant)),
		cons2:    testutil.Principal(testutil.CreateUser(t, db, "cons2", domain.RoleConsultant)),
	}
}

func requireKind(t *testing.T, err error, want error) *domain.Error {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, want), "got %v", err)
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	return derr
}

func TestCreateClient_ConsultantOwnerIsForced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.entities.Create(ctx, f.cons1, domain.KindClient, domain.Payload{
		"first_name":    "Mehmet",
		"last_name":     "Demir",
		"consultant_id": f.cons2.ID,
		"created_by":    f.cons2.ID,
	})
	require.NoError(t, err)

	client := out.(*models.Client)
	stored, err := f.repos.Clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, f.cons1.ID, stored.ConsultantID)
	assert.Equal(t, f.cons1.ID, stored.CreatedBy)
	assert.Equal(t, domain.StatusActive, stored.Status)
}

func TestCreateClient_AdminAssignsOwner(t *testing.T) {
	f := newFixture(t)

	out, err := f.entities.Create(context.Background(), f.admin, domain.KindClient, domain.Payload{
		"first_name":    "Mehmet",
		"last_name":     "Demir",
		"consultant_id": f.cons2.ID,
	})
	require.NoError(t, err)

	client := out.(*models.Client)
	assert.Equal(t, f.cons2.ID, client.ConsultantID)
	assert.Equal(t, f.admin.ID, client.CreatedBy)
}

func TestCreateClient_MissingRequiredFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.entities.Create(context.Background(), f.cons1, domain.KindClient, domain.Payload{
		"first_name": "Mehmet",
	})
	derr := requireKind(t, err, domain.ErrValidation)
	assert.Contains(t, derr.Fields, "last_name")

	_, total, err := f.repos.Clients.List(context.Background(), repositories.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestForeignClientIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	row := testutil.CreateClient(t, f.db, f.cons2.ID)

	_, err := f.entities.Get(ctx, f.cons1, domain.KindClient, row.ID)
	requireKind(t, err, domain.ErrForbidden)

	_, err = f.entities.Update(ctx, f.cons1, domain.KindClient, row.ID, domain.Payload{"notes": "mine now"})
	requireKind(t, err, domain.ErrForbidden)

	err = f.entities.Delete(ctx, f.cons1, domain.KindClient, row.ID)
	requireKind(t, err, domain.ErrForbidden)

	stored, err := f.repos.Clients.GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Notes)
}

func TestListClients_Scoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testutil.CreateClient(t, f.db, f.cons1.ID)
	testutil.CreateClient(t, f.db, f.cons1.ID)
	testutil.CreateClient(t, f.db, f.cons2.ID)

	out, total, err := f.entities.List(ctx, f.admin, domain.KindClient, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, out.([]*models.Client), 3)

	out, total, err = f.entities.List(ctx, f.cons1, domain.KindClient, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, c := range out.([]*models.Client) {
		assert.Equal(t, f.cons1.ID, c.ConsultantID)
	}

	out, total, err = f.entities.List(ctx, f.admin, domain.KindClient, ListOptions{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, out.([]*models.Client), 1)
}

func TestListUsers_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.entities.List(ctx, f.cons1, domain.KindUser, ListOptions{})
	requireKind(t, err, domain.ErrForbidden)

	out, total, err := f.entities.List(ctx, f.admin, domain.KindUser, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, out.([]*models.User), 3)
}

func TestUpdateClient_OwnerFieldIsRejected(t *testing.T) {
	f := newFixture(t)
	row := testutil.CreateClient(t, f.db, f.cons1.ID)

	_, err := f.entities.Update(context.Background(), f.cons1, domain.KindClient, row.ID, domain.Payload{
		"consultant_id": f.cons2.ID,
	})
	derr := requireKind(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"consultant_id"}, derr.Fields)

	stored, err := f.repos.Clients.GetByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, f.cons1.ID, stored.ConsultantID)
}

func TestUpdateClient_AdminMayReassign(t *testing.T) {
	f := newFixture(t)
	row := testutil.CreateClient(t, f.db, f.cons1.ID)

	out, err := f.entities.Update(context.Background(), f.admin, domain.KindClient, row.ID, domain.Payload{
		"consultant_id": f.cons2.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, f.cons2.ID, out.(*models.Client).ConsultantID)
}

func TestGetMissingRowIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.entities.Get(context.Background(), f.admin, domain.KindClient, "does-not-exist")
	requireKind(t, err, domain.ErrNotFound)

	err = f.entities.Delete(context.Background(), f.admin, domain.KindProperty, "does-not-exist")
	requireKind(t, err, domain.ErrNotFound)
}

func TestCreateTransaction_DerivesAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.entities.Create(ctx, f.cons1, domain.KindTransaction, domain.Payload{
		"amount":           "100000",
		"commission_rate":  "3",
		"transaction_date": "2024-03-15",
	})
	require.NoError(t, err)

	tx := out.(*models.Transaction)
	assert.Equal(t, "3000.00", tx.CommissionAmount.StringFixed(2))
	assert.Equal(t, "540.00", tx.TaxAmount.StringFixed(2))
	assert.Equal(t, "96460.00", tx.NetAmount.StringFixed(2))
	assert.Equal(t, f.cons1.ID, tx.ConsultantID)

	stored, err := f.repos.Transactions.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "96460.00", stored.NetAmount.StringFixed(2))
}

func TestCreateTransaction_DefaultRate(t *testing.T) {
	f := newFixture(t)

	out, err := f.entities.Create(context.Background(), f.cons1, domain.KindTransaction, domain.Payload{
		"amount": 200000,
	})
	require.NoError(t, err)

	tx := out.(*models.Transaction)
	require.NotNil(t, tx.CommissionRate)
	assert.Equal(t, "3.00", tx.CommissionRate.StringFixed(2))
	assert.Equal(t, "6000.00", tx.CommissionAmount.StringFixed(2))
}

func TestCreateTransaction_ZeroAmount(t *testing.T) {
	f := newFixture(t)

	out, err := f.entities.Create(context.Background(), f.cons1, domain.KindTransaction, domain.Payload{
		"amount":          "0",
		"commission_rate": "3",
	})
	require.NoError(t, err)

	tx := out.(*models.Transaction)
	assert.Equal(t, "0.00", tx.CommissionAmount.StringFixed(2))
	assert.Equal(t, "0.00", tx.TaxAmount.StringFixed(2))
	assert.Equal(t, "0.00", tx.NetAmount.StringFixed(2))
}

func TestCreateTransaction_InvalidInputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload domain.Payload
		field   string
	}{
		{"negative amount", domain.Payload{"amount": "-1"}, "amount"},
		{"rate above 100", domain.Payload{"amount": "1000", "commission_rate": "101"}, "commission_rate"},
		{"non numeric amount", domain.Payload{"amount": "abc"}, "amount"},
		{"missing amount", domain.Payload{"notes": "no amount"}, "amount"},
		{"huge exponent", domain.Payload{"amount": "1e40000000"}, "amount"},
		{"tiny exponent", domain.Payload{"amount": "1e-40000000"}, "amount"},
		{"wider than the column", domain.Payload{"amount": "10000000000000"}, "amount"},
		{"huge rate exponent", domain.Payload{"amount": "1000", "commission_rate": "1e40000000"}, "commission_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.entities.Create(ctx, f.cons1, domain.KindTransaction, tt.payload)
			derr := requireKind(t, err, domain.ErrValidation)
			assert.Contains(t, derr.Fields, tt.field)
		})
	}
}

func TestCreateTransaction_DerivedFieldsAreReadOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.entities.Create(context.Background(), f.cons1, domain.KindTransaction, domain.Payload{
		"amount":            "1000",
		"commission_amount": "999",
	})
	derr := requireKind(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"commission_amount"}, derr.Fields)
}

func TestUpdateTransaction_RecomputesOnRateChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	row := testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusPending, 100000,
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	out, err := f.entities.Update(ctx, f.cons1, domain.KindTransaction, row.ID, domain.Payload{
		"commission_rate": "2",
	})
	require.NoError(t, err)

	tx := out.(*models.Transaction)
	assert.Equal(t, "2000.00", tx.CommissionAmount.StringFixed(2))
	assert.Equal(t, "360.00", tx.TaxAmount.StringFixed(2))
	assert.Equal(t, "97640.00", tx.NetAmount.StringFixed(2))
}

func TestUpdateTransaction_StatusOnlyKeepsAmounts(t *testing.T) {
	f := newFixture(t)
	row := testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusPending, 100000,
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	out, err := f.entities.Update(context.Background(), f.cons1, domain.KindTransaction, row.ID, domain.Payload{
		"status": domain.StatusCompleted,
	})
	require.NoError(t, err)

	tx := out.(*models.Transaction)
	assert.Equal(t, domain.StatusCompleted, tx.Status)
	assert.Equal(t, "3000.00", tx.CommissionAmount.StringFixed(2))
}

func TestCreateUser_DuplicateUsernameIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, before, err := f.repos.Users.List(ctx, repositories.ListFilter{})
	require.NoError(t, err)

	_, err = f.entities.Create(ctx, f.admin, domain.KindUser, domain.Payload{
		"first_name": "Another",
		"last_name":  "Consultant",
		"username":   "cons1",
		"email":      "fresh@example.com",
		"password":   "password123",
	})
	requireKind(t, err, domain.ErrConflict)

	_, after, err := f.repos.Users.List(ctx, repositories.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCreateUser_HashesPassword(t *testing.T) {
	f := newFixture(t)

	out, err := f.entities.Create(context.Background(), f.admin, domain.KindUser, domain.Payload{
		"first_name": "New",
		"last_name":  "Consultant",
		"username":   "newcons",
		"email":      "NewCons@Example.com",
		"password":   "password123",
	})
	require.NoError(t, err)

	u := out.(*models.User)
	assert.Equal(t, string(domain.RoleConsultant), u.Role)
	assert.Equal(t, "newcons@example.com", u.Email)
	assert.NotEqual(t, "password123", u.Password)
	assert.NotEmpty(t, u.Password)
}

func TestCreateUser_ShortPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.entities.Create(context.Background(), f.admin, domain.KindUser, domain.Payload{
		"first_name": "New",
		"last_name":  "Consultant",
		"username":   "newcons",
		"email":      "newcons@example.com",
		"password":   "short",
	})
	derr := requireKind(t, err, domain.ErrValidation)
	assert.Contains(t, derr.Fields, "password")
}

func TestUsers_SelfGuardsAndNoDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.entities.Update(ctx, f.admin, domain.KindUser, f.admin.ID, domain.Payload{"role": "consultant"})
	requireKind(t, err, domain.ErrForbidden)

	_, err = f.entities.Update(ctx, f.admin, domain.KindUser, f.admin.ID, domain.Payload{"status": "inactive"})
	requireKind(t, err, domain.ErrForbidden)

	err = f.entities.Delete(ctx, f.admin, domain.KindUser, f.cons1.ID)
	requireKind(t, err, domain.ErrForbidden)

	_, err = f.entities.Create(ctx, f.cons1, domain.KindUser, domain.Payload{"username": "x"})
	requireKind(t, err, domain.ErrForbidden)
}

func TestDocuments_CreatorMayMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.entities.Create(ctx, f.cons1, domain.KindDocument, domain.Payload{
		"document_type": "title_deed",
		"file_url":      "https://files.example.com/deed.pdf",
	})
	require.NoError(t, err)
	doc := out.(*models.Document)
	assert.Equal(t, f.cons1.ID, doc.CreatedBy)

	// office-wide listing
	_, total, err := f.entities.List(ctx, f.cons2, domain.KindDocument, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, err = f.entities.Get(ctx, f.cons2, domain.KindDocument, doc.ID)
	require.NoError(t, err)

	_, err = f.entities.Update(ctx, f.cons2, domain.KindDocument, doc.ID, domain.Payload{"notes": "x"})
	requireKind(t, err, domain.ErrForbidden)

	err = f.entities.Delete(ctx, f.cons2, domain.KindDocument, doc.ID)
	requireKind(t, err, domain.ErrForbidden)

	require.NoError(t, f.entities.Delete(ctx, f.cons1, domain.KindDocument, doc.ID))
}

func TestProperty_DuplicateListingCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := domain.Payload{
		"listing_code": "LST-001",
		"province":     "Izmir",
		"district":     "Urla",
		"kind":         "field",
		"area_m2":      "1250.50",
		"coordinates":  map[string]interface{}{"lat": 38.32, "lng": 26.76},
	}

	out, err := f.entities.Create(ctx, f.cons1, domain.KindProperty, payload)
	require.NoError(t, err)
	prop := out.(*models.Property)
	require.NotNil(t, prop.AreaM2)
	assert.Equal(t, "1250.50", prop.AreaM2.StringFixed(2))
	assert.JSONEq(t, `{"lat":38.32,"lng":26.76}`, string(prop.Coordinates))

	_, err = f.entities.Create(ctx, f.cons2, domain.KindProperty, payload)
	requireKind(t, err, domain.ErrConflict)

	_, err = f.entities.Create(ctx, f.cons1, domain.KindProperty, domain.Payload{
		"province": "Izmir",
		"district": "Urla",
		"kind":     "castle",
	})
	derr := requireKind(t, err, domain.ErrValidation)
	assert.Contains(t, derr.Fields, "kind")
}

func TestAccounting_TotalsAndPeriodConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.entities.Create(ctx, f.cons1, domain.KindAccounting, domain.Payload{"month": 1, "year": 2024})
	requireKind(t, err, domain.ErrForbidden)

	out, err := f.entities.Create(ctx, f.admin, domain.KindAccounting, domain.Payload{
		"month":             3,
		"year":              2024,
		"office_share":      "10000",
		"monthly_income":    "2500",
		"fixed_expenses":    "4000",
		"variable_expenses": "1500.50",
		"taxes":             "1200",
	})
	require.NoError(t, err)

	rec := out.(*models.AccountingRecord)
	assert.Equal(t, "6999.50", rec.GrossProfit.StringFixed(2))
	assert.Equal(t, "5799.50", rec.NetProfit.StringFixed(2))

	_, err = f.entities.Create(ctx, f.admin, domain.KindAccounting, domain.Payload{"month": 3, "year": 2024})
	requireKind(t, err, domain.ErrConflict)

	out, err = f.entities.Update(ctx, f.admin, domain.KindAccounting, rec.ID, domain.Payload{"taxes": "0"})
	require.NoError(t, err)
	assert.Equal(t, "6999.50", out.(*models.AccountingRecord).NetProfit.StringFixed(2))
}

func TestUnknownRoleIsInternal(t *testing.T) {
	f := newFixture(t)
	odd := &domain.Principal{ID: f.cons1.ID, Role: domain.Role("superuser")}

	_, _, err := f.entities.List(context.Background(), odd, domain.KindClient, ListOptions{})
	requireKind(t, err, domain.ErrInternal)
}
