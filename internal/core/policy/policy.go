// Package policy decides what a principal may see and do for every entity
// kind and operation, independent of transport and storage.
//
// Every function takes the principal explicitly. A nil principal is an
// unauthenticated caller. Roles are matched exhaustively; a role value that
// is neither admin nor consultant is treated as an internal error rather
// than silently falling into one of the branches.
package policy

import (
	"fmt"

	"realestate-crm/internal/core/domain"
)

// Scope restricts a list query. When All is false only rows whose
// consultant_id equals ConsultantID are visible.
type Scope struct {
	All          bool
	ConsultantID string
}

// ConsultantFilter returns the owner id to filter by, or nil for all rows
func (s Scope) ConsultantFilter() *string {
	if s.All {
		return nil
	}
	id := s.ConsultantID
	return &id
}

// RowOwnership carries the ownership columns of a fetched row
type RowOwnership struct {
	ConsultantID string
	CreatedBy    string
}

func unknownRole(r domain.Role) error {
	return domain.Internal(fmt.Errorf("policy: unknown role %q", r))
}

// Authorize checks that p may perform op on kind at all
func Authorize(p *domain.Principal, kind domain.EntityKind, op domain.Operation) error {
	if p == nil {
		return domain.ErrUnauthenticated
	}

	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleConsultant:
		if kind.IsAdminOnly() {
			return domain.Forbidden(fmt.Sprintf("admin role required to %s %s records", op, kind))
		}
		return nil
	default:
		return unknownRole(p.Role)
	}
}

// ListScope authorizes a list call and returns the row filter to apply
func ListScope(p *domain.Principal, kind domain.EntityKind) (Scope, error) {
	if err := Authorize(p, kind, domain.OpList); err != nil {
		return Scope{}, err
	}

	if !kind.IsConsultantScoped() {
		// Users and accounting are admin-only; documents are office-wide.
		return Scope{All: true}, nil
	}

	switch p.Role {
	case domain.RoleAdmin:
		return Scope{All: true}, nil
	case domain.RoleConsultant:
		return Scope{ConsultantID: p.ID}, nil
	default:
		return Scope{}, unknownRole(p.Role)
	}
}

// CheckRowAccess decides whether p may get, update or delete a fetched row
func CheckRowAccess(p *domain.Principal, kind domain.EntityKind, op domain.Operation, row RowOwnership) error {
	if err := Authorize(p, kind, op); err != nil {
		return err
	}

	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleConsultant:
		if kind.IsConsultantScoped() && row.ConsultantID != p.ID {
			return domain.Forbidden(fmt.Sprintf("you are not allowed to %s this %s", op, kind))
		}
		if kind == domain.KindDocument && op != domain.OpGet && row.CreatedBy != p.ID {
			return domain.Forbidden(fmt.Sprintf("only the creator may %s this document", op))
		}
		return nil
	default:
		return unknownRole(p.Role)
	}
}

var errOwnerType = domain.Validation("consultant_id must be a user id string", "consultant_id")

// StampCreate rewrites the ownership and audit keys of a create payload.
// Consultants always own what they create; admins may name an owner and
// default to themselves. created_by is never taken from the request.
func StampCreate(p *domain.Principal, kind domain.EntityKind, payload domain.Payload) (domain.Payload, error) {
	if err := Authorize(p, kind, domain.OpCreate); err != nil {
		return nil, err
	}

	out := payload.Clone()
	if kind.IsConsultantScoped() {
		switch p.Role {
		case domain.RoleConsultant:
			out["consultant_id"] = p.ID
		case domain.RoleAdmin:
			switch owner := out["consultant_id"].(type) {
			case nil:
				out["consultant_id"] = p.ID
			case string:
				if owner == "" {
					out["consultant_id"] = p.ID
				}
			default:
				return nil, errOwnerType
			}
		default:
			return nil, unknownRole(p.Role)
		}
	}

	switch kind {
	case domain.KindClient, domain.KindDocument, domain.KindReport:
		out["created_by"] = p.ID
	}
	return out, nil
}

// CheckFields rejects payload keys outside the (kind, role, op) contract.
// Disallowed keys are reported, never dropped.
func CheckFields(p *domain.Principal, kind domain.EntityKind, op domain.Operation, payload domain.Payload) error {
	if err := Authorize(p, kind, op); err != nil {
		return err
	}

	switch p.Role {
	case domain.RoleAdmin, domain.RoleConsultant:
	default:
		return unknownRole(p.Role)
	}

	allowed, ok := contracts[contractKey{kind, p.Role, op}]
	if !ok {
		return domain.Forbidden(fmt.Sprintf("%s is not permitted on %s records", op, kind))
	}

	var rejected []string
	for key := range payload {
		if _, ok := allowed[key]; !ok {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		return domain.Validation("payload contains fields that may not be set", rejected...)
	}

	if owner, ok := payload["consultant_id"]; ok && owner != nil {
		if _, isString := owner.(string); !isString {
			return errOwnerType
		}
	}
	return nil
}
