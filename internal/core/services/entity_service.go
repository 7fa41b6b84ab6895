package services

import (
	"context"
	"fmt"

	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/policy"
	"realestate-crm/internal/pkg/validation"

	"github.com/sirupsen/logrus"
)

// ListOptions carries optional paging for list calls. Limit 0 means all rows.
type ListOptions struct {
	Offset int
	Limit  int
}

// Resource is the CRUD surface of one entity kind. Every call takes the
// caller explicitly and runs it through the policy engine.
type Resource interface {
	Kind() domain.EntityKind
	List(ctx context.Context, p *domain.Principal, opts ListOptions) (interface{}, int64, error)
	Get(ctx context.Context, p *domain.Principal, id string) (interface{}, error)
	Create(ctx context.Context, p *domain.Principal, payload domain.Payload) (interface{}, error)
	Update(ctx context.Context, p *domain.Principal, id string, payload domain.Payload) (interface{}, error)
	Delete(ctx context.Context, p *domain.Principal, id string) error
}

// mutation describes one create or update as it flows through the hooks
type mutation struct {
	principal *domain.Principal
	op        domain.Operation
	requested domain.Payload // as sent by the caller
	payload   domain.Payload // after ownership stamping
}

// resourceHooks customise the generic flow for one kind
type resourceHooks[T any] struct {
	// newRow returns an empty row with column defaults applied
	newRow func() *T
	// ownership extracts the columns the row-level checks look at
	ownership func(*T) policy.RowOwnership
	// prepare runs after decoding and before validation; derivations live here
	prepare func(ctx context.Context, m mutation, row *T) error
	// beforeSave runs after validation; uniqueness checks live here
	beforeSave func(ctx context.Context, m mutation, row *T) error
	// omit lists payload keys consumed by prepare rather than decoded
	omit []string
	// noDelete disables Delete for the kind
	noDelete bool
}

// resource implements Resource over a generic repository
type resource[T any] struct {
	kind      domain.EntityKind
	repo      repositories.EntityRepository[T]
	validator *validation.Validator
	hooks     resourceHooks[T]
}

func newResource[T any](kind domain.EntityKind, repo repositories.EntityRepository[T], v *validation.Validator, hooks resourceHooks[T]) *resource[T] {
	if hooks.newRow == nil {
		hooks.newRow = func() *T { return new(T) }
	}
	if hooks.ownership == nil {
		hooks.ownership = func(*T) policy.RowOwnership { return policy.RowOwnership{} }
	}
	return &resource[T]{kind: kind, repo: repo, validator: v, hooks: hooks}
}

func (r *resource[T]) Kind() domain.EntityKind {
	return r.kind
}

// List returns the rows visible to p
func (r *resource[T]) List(ctx context.Context, p *domain.Principal, opts ListOptions) (interface{}, int64, error) {
	scope, err := policy.ListScope(p, r.kind)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := r.repo.List(ctx, repositories.ListFilter{
		ConsultantID: scope.ConsultantFilter(),
		Offset:       opts.Offset,
		Limit:        opts.Limit,
	})
	if err != nil {
		return nil, 0, storeError(r.kind, err)
	}
	return rows, total, nil
}

// Get returns one row after the ownership check
func (r *resource[T]) Get(ctx context.Context, p *domain.Principal, id string) (interface{}, error) {
	return r.fetch(ctx, p, domain.OpGet, id)
}

func (r *resource[T]) fetch(ctx context.Context, p *domain.Principal, op domain.Operation, id string) (*T, error) {
	if err := policy.Authorize(p, r.kind, op); err != nil {
		return nil, err
	}

	row, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(r.kind, err)
	}

	if err := policy.CheckRowAccess(p, r.kind, op, r.hooks.ownership(row)); err != nil {
		return nil, err
	}
	return row, nil
}

// Create stamps ownership, checks the field contract, derives and stores
func (r *resource[T]) Create(ctx context.Context, p *domain.Principal, payload domain.Payload) (interface{}, error) {
	stamped, err := policy.StampCreate(p, r.kind, payload)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckFields(p, r.kind, domain.OpCreate, stamped); err != nil {
		return nil, err
	}

	m := mutation{principal: p, op: domain.OpCreate, requested: payload, payload: stamped}
	row := r.hooks.newRow()
	if err := r.apply(ctx, m, row); err != nil {
		return nil, err
	}

	if err := r.repo.Create(ctx, row); err != nil {
		return nil, storeError(r.kind, err)
	}
	return row, nil
}

// Update applies a partial payload to an owned row
func (r *resource[T]) Update(ctx context.Context, p *domain.Principal, id string, payload domain.Payload) (interface{}, error) {
	row, err := r.fetch(ctx, p, domain.OpUpdate, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckFields(p, r.kind, domain.OpUpdate, payload); err != nil {
		return nil, err
	}

	m := mutation{principal: p, op: domain.OpUpdate, requested: payload, payload: payload}
	if err := r.apply(ctx, m, row); err != nil {
		return nil, err
	}

	if err := r.repo.Update(ctx, row); err != nil {
		return nil, storeError(r.kind, err)
	}
	return row, nil
}

// Delete removes an owned row
func (r *resource[T]) Delete(ctx context.Context, p *domain.Principal, id string) error {
	if err := policy.Authorize(p, r.kind, domain.OpDelete); err != nil {
		return err
	}
	if r.hooks.noDelete {
		return domain.Forbidden(fmt.Sprintf("%s records cannot be deleted", r.kind))
	}

	if _, err := r.fetch(ctx, p, domain.OpDelete, id); err != nil {
		return err
	}
	return storeError(r.kind, r.repo.Delete(ctx, id))
}

// apply decodes, derives, validates and runs the pre-save checks
func (r *resource[T]) apply(ctx context.Context, m mutation, row *T) error {
	decoded := m.payload
	if len(r.hooks.omit) > 0 {
		decoded = decoded.Clone()
		for _, key := range r.hooks.omit {
			delete(decoded, key)
		}
	}

	if err := r.validator.Decode(decoded, row); err != nil {
		return err
	}
	if r.hooks.prepare != nil {
		if err := r.hooks.prepare(ctx, m, row); err != nil {
			return err
		}
	}
	if err := r.validator.Struct(row); err != nil {
		return err
	}
	if r.hooks.beforeSave != nil {
		if err := r.hooks.beforeSave(ctx, m, row); err != nil {
			return err
		}
	}
	return nil
}

// EntityService dispatches entity operations to the resource of each kind
type EntityService struct {
	resources map[domain.EntityKind]Resource
	logger    *logrus.Logger
}

// NewEntityService creates the service with a resource for every entity kind
func NewEntityService(repos *repositories.Set, v *validation.Validator, reports *ReportService, logger *logrus.Logger) *EntityService {
	s := &EntityService{
		resources: make(map[domain.EntityKind]Resource),
		logger:    logger,
	}
	for _, res := range []Resource{
		newUserResource(repos.Users, v),
		newClientResource(repos.Clients, v),
		newPropertyResource(repos.Properties, v),
		newTransactionResource(repos.Transactions, v),
		newDocumentResource(repos.Documents, v),
		reports.Resource(),
		newAccountingResource(repos.Accounting, v),
	} {
		s.resources[res.Kind()] = res
	}
	return s
}

func (s *EntityService) resource(kind domain.EntityKind) (Resource, error) {
	res, ok := s.resources[kind]
	if !ok {
		return nil, domain.NotFound(fmt.Sprintf("unknown entity %q", kind))
	}
	return res, nil
}

// List lists the rows of kind visible to p
func (s *EntityService) List(ctx context.Context, p *domain.Principal, kind domain.EntityKind, opts ListOptions) (interface{}, int64, error) {
	res, err := s.resource(kind)
	if err != nil {
		return nil, 0, err
	}
	return res.List(ctx, p, opts)
}

// Get gets one row of kind
func (s *EntityService) Get(ctx context.Context, p *domain.Principal, kind domain.EntityKind, id string) (interface{}, error) {
	res, err := s.resource(kind)
	if err != nil {
		return nil, err
	}
	return res.Get(ctx, p, id)
}

// Create creates a row of kind
func (s *EntityService) Create(ctx context.Context, p *domain.Principal, kind domain.EntityKind, payload domain.Payload) (interface{}, error) {
	res, err := s.resource(kind)
	if err != nil {
		return nil, err
	}
	out, err := res.Create(ctx, p, payload)
	if err == nil {
		s.logger.WithFields(logrus.Fields{"entity": kind, "by": p.ID}).Info("entity created")
	}
	return out, err
}

// Update updates a row of kind
func (s *EntityService) Update(ctx context.Context, p *domain.Principal, kind domain.EntityKind, id string, payload domain.Payload) (interface{}, error) {
	res, err := s.resource(kind)
	if err != nil {
		return nil, err
	}
	out, err := res.Update(ctx, p, id, payload)
	if err == nil {
		s.logger.WithFields(logrus.Fields{"entity": kind, "id": id, "by": p.ID}).Info("entity updated")
	}
	return out, err
}

// Delete deletes a row of kind
func (s *EntityService) Delete(ctx context.Context, p *domain.Principal, kind domain.EntityKind, id string) error {
	res, err := s.resource(kind)
	if err != nil {
		return err
	}
	err = res.Delete(ctx, p, id)
	if err == nil {
		s.logger.WithFields(logrus.Fields{"entity": kind, "id": id, "by": p.ID}).Info("entity deleted")
	}
	return err
}
