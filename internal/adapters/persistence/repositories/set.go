package repositories

import (
	"realestate-crm/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// Set bundles every repository the services depend on
type Set struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Clients       EntityRepository[models.Client]
	Properties    EntityRepository[models.Property]
	Transactions  EntityRepository[models.Transaction]
	Documents     EntityRepository[models.Document]
	Reports       EntityRepository[models.Report]
	Accounting    AccountingRepository
}

// NewSet creates all repositories over one connection
func NewSet(db *gorm.DB) *Set {
	return &Set{
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Clients:       NewEntityRepository[models.Client](db),
		Properties:    NewEntityRepository[models.Property](db),
		Transactions:  NewEntityRepository[models.Transaction](db),
		Documents:     NewEntityRepository[models.Document](db),
		Reports:       NewEntityRepository[models.Report](db),
		Accounting:    NewAccountingRepository(db),
	}
}
