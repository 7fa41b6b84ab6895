package policy

import (
	"sort"

	"realestate-crm/internal/core/domain"
)

// fieldSet is an allow-list of payload keys
type fieldSet map[string]struct{}

func fields(groups ...[]string) fieldSet {
	s := make(fieldSet)
	for _, g := range groups {
		for _, f := range g {
			s[f] = struct{}{}
		}
	}
	return s
}

func (s fieldSet) sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Writable columns per entity, without ownership or audit columns.
// Derived columns (commission/tax/net, gross/net profit, revenue accumulators)
// and store-owned columns (id, timestamps, last_login_at) never appear here.
var (
	userFields = []string{
		"first_name", "last_name", "username", "email", "phone", "role", "department",
		"password", "status", "photo_url", "notes", "revenue_share_percent",
	}
	clientFields = []string{
		"first_name", "last_name", "national_id", "phone", "email", "address", "gender",
		"occupation", "company_name", "tax_number", "iban", "notes", "status",
	}
	propertyFields = []string{
		"listing_code", "province", "district", "neighborhood", "block_no", "parcel_no",
		"area_m2", "kind", "zoning_plan_type", "site_coverage_ratio", "floor_area_ratio",
		"max_height", "owner_client_id", "previous_owner_client_id", "acquired_at",
		"purchase_price", "title_deed_value", "title_deed_sale_value", "appraisal_price",
		"listing_price", "coordinates", "photo_url", "photo_360_url", "listed_at", "notes",
		"status", "usage_status", "deed_status", "mortgage_status",
	}
	transactionFields = []string{
		"transaction_code", "property_id", "buyer_client_id", "seller_client_id",
		"transaction_date", "amount", "currency", "status", "payment_method",
		"payment_status", "commission_rate", "contract_id", "notes",
	}
	documentFields = []string{
		"document_code", "property_id", "transaction_id", "document_type", "notary",
		"attorney", "power_of_attorney_date", "power_of_attorney_expiry",
		"issuing_authority", "authorized_office", "owner_name", "deed_date",
		"previous_owner_client_id", "file_url", "file_type", "file_size", "issued_at",
		"signer", "signed_at", "approver", "approved_at", "verification_code",
		"contract_id", "visibility", "notes", "status",
	}
	reportCreateFields = []string{"report_type", "title", "period_start", "period_end", "status"}
	reportUpdateFields = []string{"title", "status"}
	accountingFields   = []string{
		"month", "year", "total_revenue", "office_share", "monthly_income",
		"fixed_expenses", "variable_expenses", "expense_name", "taxes", "tax_type",
		"payments", "payment_type",
	}

	ownerField     = []string{"consultant_id"}
	referralField  = []string{"referred_by"}
	createdByField = []string{"created_by"}
)

type contractKey struct {
	kind domain.EntityKind
	role domain.Role
	op   domain.Operation
}

// contracts maps (kind, role, operation) to the payload keys the caller may send.
// created_by and consultant_id appear in create contracts because StampCreate
// overwrites them before the check runs.
var contracts = map[contractKey]fieldSet{
	{domain.KindUser, domain.RoleAdmin, domain.OpCreate}: fields(userFields),
	{domain.KindUser, domain.RoleAdmin, domain.OpUpdate}: fields(userFields),

	{domain.KindClient, domain.RoleAdmin, domain.OpCreate}:      fields(clientFields, ownerField, referralField, createdByField),
	{domain.KindClient, domain.RoleConsultant, domain.OpCreate}: fields(clientFields, ownerField, referralField, createdByField),
	{domain.KindClient, domain.RoleAdmin, domain.OpUpdate}:      fields(clientFields, ownerField, referralField),
	{domain.KindClient, domain.RoleConsultant, domain.OpUpdate}: fields(clientFields),

	{domain.KindProperty, domain.RoleAdmin, domain.OpCreate}:      fields(propertyFields, ownerField),
	{domain.KindProperty, domain.RoleConsultant, domain.OpCreate}: fields(propertyFields, ownerField),
	{domain.KindProperty, domain.RoleAdmin, domain.OpUpdate}:      fields(propertyFields, ownerField),
	{domain.KindProperty, domain.RoleConsultant, domain.OpUpdate}: fields(propertyFields),

	{domain.KindTransaction, domain.RoleAdmin, domain.OpCreate}:      fields(transactionFields, ownerField),
	{domain.KindTransaction, domain.RoleConsultant, domain.OpCreate}: fields(transactionFields, ownerField),
	{domain.KindTransaction, domain.RoleAdmin, domain.OpUpdate}:      fields(transactionFields, ownerField),
	{domain.KindTransaction, domain.RoleConsultant, domain.OpUpdate}: fields(transactionFields),

	{domain.KindDocument, domain.RoleAdmin, domain.OpCreate}:      fields(documentFields, createdByField),
	{domain.KindDocument, domain.RoleConsultant, domain.OpCreate}: fields(documentFields, createdByField),
	{domain.KindDocument, domain.RoleAdmin, domain.OpUpdate}:      fields(documentFields),
	{domain.KindDocument, domain.RoleConsultant, domain.OpUpdate}: fields(documentFields),

	{domain.KindReport, domain.RoleAdmin, domain.OpCreate}:      fields(reportCreateFields, ownerField, createdByField),
	{domain.KindReport, domain.RoleConsultant, domain.OpCreate}: fields(reportCreateFields, ownerField, createdByField),
	{domain.KindReport, domain.RoleAdmin, domain.OpUpdate}:      fields(reportUpdateFields, ownerField),
	{domain.KindReport, domain.RoleConsultant, domain.OpUpdate}: fields(reportUpdateFields),

	{domain.KindAccounting, domain.RoleAdmin, domain.OpCreate}: fields(accountingFields),
	{domain.KindAccounting, domain.RoleAdmin, domain.OpUpdate}: fields(accountingFields),
}

// AllowedFields returns the sorted allow-list for (kind, role, op), or nil
// when the combination has no write contract.
func AllowedFields(kind domain.EntityKind, role domain.Role, op domain.Operation) []string {
	s, ok := contracts[contractKey{kind, role, op}]
	if !ok {
		return nil
	}
	return s.sorted()
}
