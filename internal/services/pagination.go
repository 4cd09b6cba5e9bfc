package services

import (
	"context"

	"gorm.io/gorm"

	"fitforge/internal/apperrors"
)

const (
	DefaultPageLimit = 6
	MaxPageLimit     = 100
)

// PageRequest is bound from ?page=&limit=. Out of range values fall back to
// the defaults.
type PageRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (p PageRequest) normalize() (page, limit int) {
	page, limit = p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
		Limit:       limit,
	}
}

// Paginate counts the rows matched by query, then loads one page of them in
// the given order. Scopes such as preloads apply to the page load only.
func Paginate[T any](ctx context.Context, query *gorm.DB, order string, req PageRequest, scopes ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	page, limit := req.normalize()
	query = query.WithContext(ctx).Model(new(T))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, apperrors.Internal(err)
	}

	items := make([]T, 0, limit)
	if err := query.Session(&gorm.Session{}).
		Scopes(scopes...).
		Order(order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error; err != nil {
		return Page[T]{}, apperrors.Internal(err)
	}

	return Page[T]{Items: items, Pagination: NewPagination(page, limit, total)}, nil
}
