package services

import (
	"errors"
	"fmt"

	"realestate-crm/internal/core/domain"

	"gorm.io/gorm"
)

// storeError converts a repository error into a domain error
func storeError(kind domain.EntityKind, err error) error {
	if err == nil {
		return nil
	}

	var derr *domain.Error
	switch {
	case errors.As(err, &derr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(fmt.Sprintf("%s not found", kind))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Conflict(fmt.Sprintf("%s already exists", kind))
	}
	return domain.Internal(err)
}
