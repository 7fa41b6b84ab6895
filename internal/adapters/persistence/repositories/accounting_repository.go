package repositories

import (
	"context"

	"realestate-crm/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// accountingRepository implements AccountingRepository interface
type accountingRepository struct {
	EntityRepository[models.AccountingRecord]
	db *gorm.DB
}

// NewAccountingRepository creates a new accounting repository
func NewAccountingRepository(db *gorm.DB) AccountingRepository {
	return &accountingRepository{
		EntityRepository: NewEntityRepository[models.AccountingRecord](db),
		db:               db,
	}
}

// GetByPeriod gets the record of a month
func (r *accountingRepository) GetByPeriod(ctx context.Context, month, year int) (*models.AccountingRecord, error) {
	var record models.AccountingRecord
	err := r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
