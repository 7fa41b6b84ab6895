package services

import (
	"context"
	"fmt"

	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/finance"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	repos *repositories.Set
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repos *repositories.Set) *DashboardService {
	return &DashboardService{repos: repos}
}

// Stats returns the dashboard aggregate. Admins see the whole office,
// consultants their own rows only.
func (s *DashboardService) Stats(ctx context.Context, p *domain.Principal) (*finance.DashboardStats, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}

	var scope *string
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleConsultant:
		scope = &p.ID
	default:
		return nil, domain.Internal(fmt.Errorf("dashboard: unknown role %q", p.Role))
	}

	filter := repositories.ListFilter{ConsultantID: scope}

	txs, _, err := s.repos.Transactions.List(ctx, filter)
	if err != nil {
		return nil, domain.Internal(err)
	}
	clients, _, err := s.repos.Clients.List(ctx, filter)
	if err != nil {
		return nil, domain.Internal(err)
	}
	props, _, err := s.repos.Properties.List(ctx, filter)
	if err != nil {
		return nil, domain.Internal(err)
	}

	stats := finance.AggregateDashboardStats(transactionFacts(txs), clientFacts(clients), propertyFacts(props), scope)
	return &stats, nil
}
