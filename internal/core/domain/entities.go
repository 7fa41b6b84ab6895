package domain

import "fmt"

// Role represents user role in the system
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleConsultant Role = "consultant"
)

// ParseRole converts a stored role string into a Role.
// Anything other than the two known roles is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleConsultant:
		return RoleConsultant, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsAdmin reports whether the role is admin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Principal is the authenticated caller of a request
type Principal struct {
	ID       string
	Username string
	Role     Role
}

// EntityKind names one of the persisted entity types
type EntityKind string

const (
	KindUser        EntityKind = "user"
	KindClient      EntityKind = "client"
	KindProperty    EntityKind = "property"
	KindTransaction EntityKind = "transaction"
	KindDocument    EntityKind = "document"
	KindReport      EntityKind = "report"
	KindAccounting  EntityKind = "accounting"
)

// AllKinds lists every entity kind
var AllKinds = []EntityKind{
	KindUser, KindClient, KindProperty, KindTransaction,
	KindDocument, KindReport, KindAccounting,
}

// IsConsultantScoped reports whether rows of this kind carry a consultant_id
// that drives row-level visibility.
func (k EntityKind) IsConsultantScoped() bool {
	switch k {
	case KindClient, KindProperty, KindTransaction, KindReport:
		return true
	}
	return false
}

// IsAdminOnly reports whether the kind is only reachable by admins
func (k EntityKind) IsAdminOnly() bool {
	return k == KindUser || k == KindAccounting
}

// Operation is an action taken on an entity
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Payload is a decoded JSON request body
type Payload map[string]interface{}

// Has reports whether the payload carries the key at all (null included)
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Clone returns a shallow copy
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Status values
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusPending   = "pending"
	StatusSold      = "sold"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusArchived  = "archived"

	PaymentPending       = "pending"
	PaymentPartiallyPaid = "partially_paid"
	PaymentFullyPaid     = "fully_paid"

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Report types
const (
	ReportRevenue       = "revenue"
	ReportTransaction   = "transaction"
	ReportClientCount   = "client_count"
	ReportPropertyCount = "property_count"
	ReportInvestor      = "investor"
)
