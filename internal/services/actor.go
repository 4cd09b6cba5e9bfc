package services

import (
	"errors"
	"slices"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"fitforge/internal/apperrors"
	"fitforge/internal/models"
)

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	UserID uint
	Email  string
	Role   models.Role
}

func (a Actor) Is(roles ...models.Role) bool {
	return slices.Contains(roles, a.Role)
}

func (a Actor) require(message string, roles ...models.Role) error {
	if !a.Is(roles...) {
		return apperrors.Forbidden(message)
	}
	return nil
}

// isUniqueViolation recognises duplicate keys from lib/pq and from dialects
// that translate errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// notFoundOr maps gorm's record-not-found to a NotFound for resource and
// anything else to Internal.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Internal(err)
}
