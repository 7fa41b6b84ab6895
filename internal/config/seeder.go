package config

import (
	"fmt"
	"strings"

	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg SeedConfig) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	GetLogger().Info("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		return err
	}

	GetLogger().Info("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first admin when no admin exists yet.
// SEED_ADMIN_PASSWORD must be set; there is no built-in default.
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if s.cfg.AdminPassword == "" {
		GetLogger().Warn("⚠️ Skipping admin seed: SEED_ADMIN_PASSWORD is not set")
		return nil
	}
	if err := password.Check(s.cfg.AdminPassword); err != nil {
		return fmt.Errorf("SEED_ADMIN_PASSWORD: %w", err)
	}

	hashedPassword, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		FirstName: "System",
		LastName:  "Administrator",
		Username:  s.cfg.AdminUsername,
		Email:     strings.ToLower(strings.TrimSpace(s.cfg.AdminEmail)),
		Password:  hashedPassword,
		Role:      string(domain.RoleAdmin),
		Status:    domain.StatusActive,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	GetLogger().Infof("✅ Admin user created: %s", admin.Username)
	return nil
}
