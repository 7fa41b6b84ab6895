package repositories

import (
	"context"
	"time"

	"realestate-crm/internal/adapters/persistence/models"
)

// ListFilter narrows a list query. Zero values mean "no restriction";
// Limit 0 returns every matching row.
type ListFilter struct {
	ConsultantID *string
	Status       string
	DateColumn   string
	From         *time.Time
	To           *time.Time
	Offset       int
	Limit        int
}

// EntityRepository defines the generic store for one CRM table
type EntityRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*T, int64, error)
	ExistsBy(ctx context.Context, column string, value interface{}, excludeID string) (bool, error)
}

// UserRepository defines user repository interface
type UserRepository interface {
	EntityRepository[models.User]
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRevenue(ctx context.Context, id string, fields map[string]interface{}) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// AccountingRepository defines accounting repository interface
type AccountingRepository interface {
	EntityRepository[models.AccountingRecord]
	GetByPeriod(ctx context.Context, month, year int) (*models.AccountingRecord, error)
}
