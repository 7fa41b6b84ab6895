package repositories

import (
	"context"

	"gorm.io/gorm"
)

// entityRepository implements EntityRepository for any gorm model keyed by a string id
type entityRepository[T any] struct {
	db *gorm.DB
}

// NewEntityRepository creates a new repository for model T
func NewEntityRepository[T any](db *gorm.DB) EntityRepository[T] {
	return &entityRepository[T]{db: db}
}

// Create creates a new row
func (r *entityRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// GetByID gets a row by ID
func (r *entityRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update saves every column of the row
func (r *entityRepository[T]) Update(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// Delete hard deletes a row. A missing row yields gorm.ErrRecordNotFound.
func (r *entityRepository[T]) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List lists rows matching the filter, newest first
func (r *entityRepository[T]) List(ctx context.Context, filter ListFilter) ([]*T, int64, error) {
	var rows []*T
	var total int64

	query := applyFilter(r.db.WithContext(ctx).Model(new(T)), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyFilter(r.db.WithContext(ctx).Model(new(T)), filter).Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// ExistsBy checks whether another row already holds value in column
func (r *entityRepository[T]) ExistsBy(ctx context.Context, column string, value interface{}, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(new(T)).Where(column+" = ?", value)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.ConsultantID != nil {
		query = query.Where("consultant_id = ?", *filter.ConsultantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DateColumn != "" {
		if filter.From != nil {
			query = query.Where(filter.DateColumn+" >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where(filter.DateColumn+" < ?", *filter.To)
		}
	}
	return query
}
