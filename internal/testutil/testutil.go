// Package testutil provides an in-memory store and fixtures for package tests.
package testutil

import (
	"io"
	"testing"
	"time"

	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the password of every user created by CreateUser
const DefaultPassword = "password123"

// NewDB opens a private in-memory SQLite database with the CRM schema
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// Logger returns a logger that discards its output
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// CreateUser inserts an active user with DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB, username string, role domain.Role) *models.User {
	t.Helper()

	hashed, err := password.Hash(DefaultPassword)
	require.NoError(t, err)

	u := &models.User{
		FirstName:           username,
		LastName:            "Test",
		Username:            username,
		Email:               username + "@example.com",
		Role:                string(role),
		Status:              domain.StatusActive,
		Password:            hashed,
		RevenueSharePercent: decimal.NewFromInt(40),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Principal returns the caller identity of u
func Principal(u *models.User) *domain.Principal {
	return &domain.Principal{ID: u.ID, Username: u.Username, Role: domain.Role(u.Role)}
}

// CreateClient inserts a client owned by consultantID
func CreateClient(t *testing.T, db *gorm.DB, consultantID string) *models.Client {
	t.Helper()

	c := &models.Client{
		FirstName:    "Ayse",
		LastName:     "Yilmaz",
		Status:       domain.StatusActive,
		ConsultantID: consultantID,
		CreatedBy:    consultantID,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateTransaction inserts a transaction with already derived amounts
func CreateTransaction(t *testing.T, db *gorm.DB, consultantID, status string, amount int64, on time.Time) *models.Transaction {
	t.Helper()

	amt := decimal.NewFromInt(amount)
	rate := decimal.NewFromInt(3)
	commission := amt.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	tax := commission.Mul(decimal.RequireFromString("0.18")).Round(2)

	tx := &models.Transaction{
		ConsultantID:     consultantID,
		TransactionDate:  &on,
		Amount:           &amt,
		Currency:         "TRY",
		Status:           status,
		PaymentStatus:    domain.PaymentPending,
		CommissionRate:   &rate,
		CommissionAmount: commission,
		TaxAmount:        tax,
		NetAmount:        amt.Sub(commission).Sub(tax),
	}
	require.NoError(t, db.Create(tx).Error)
	return tx
}
