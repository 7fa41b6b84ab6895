package services

import (
	"context"

	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/password"
	"realestate-crm/internal/pkg/validation"

	"github.com/sirupsen/logrus"
)

// profileFields are the columns a user may change on their own record
var profileFields = map[string]struct{}{
	"first_name": {},
	"last_name":  {},
	"email":      {},
	"phone":      {},
	"photo_url":  {},
	"notes":      {},
}

// UserService handles self-service profile operations
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	validator        *validation.Validator
	logger           *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	v *validation.Validator,
	logger *logrus.Logger,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		validator:        v,
		logger:           logger,
	}
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// GetProfile returns the caller's own user record
func (s *UserService) GetProfile(ctx context.Context, p *domain.Principal) (*models.User, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.userRepo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, storeError(domain.KindUser, err)
	}
	return user, nil
}

// UpdateProfile changes the caller's own contact fields
func (s *UserService) UpdateProfile(ctx context.Context, p *domain.Principal, payload domain.Payload) (*models.User, error) {
	user, err := s.GetProfile(ctx, p)
	if err != nil {
		return nil, err
	}

	var rejected []string
	for key := range payload {
		if _, ok := profileFields[key]; !ok {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		return nil, domain.Validation("payload contains fields that may not be set", rejected...)
	}

	if err := s.validator.Decode(payload, user); err != nil {
		return nil, err
	}
	normalizeUser(user)
	if err := s.validator.Struct(user); err != nil {
		return nil, err
	}

	if payload.Has("email") {
		exists, err := s.userRepo.ExistsBy(ctx, "email", user.Email, user.ID)
		if err != nil {
			return nil, domain.Internal(err)
		}
		if exists {
			return nil, domain.Conflict("email already exists")
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeError(domain.KindUser, err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password and signs out every session
func (s *UserService) ChangePassword(ctx context.Context, p *domain.Principal, input *ChangePasswordInput) error {
	user, err := s.GetProfile(ctx, p)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return domain.Validation("old password is incorrect", "old_password")
	}
	if err := password.Check(input.NewPassword); err != nil {
		return domain.Validation(err.Error(), "new_password")
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return domain.Internal(err)
	}
	user.Password = hashed

	if err := s.userRepo.Update(ctx, user); err != nil {
		return storeError(domain.KindUser, err)
	}
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		return domain.Internal(err)
	}

	s.logger.WithField("user", user.Username).Info("password changed")
	return nil
}
