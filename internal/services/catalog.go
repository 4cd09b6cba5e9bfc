package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fitforge/internal/apperrors"
	"fitforge/internal/cache"
	"fitforge/internal/models"
	"fitforge/internal/validator"
)

const (
	featuredCacheKey = "classes:featured"
	teamCacheKey     = "trainers:team"

	featuredLimit       = 6
	teamSize            = 3
	defaultMatchedLimit = 5
)

type ClassInput struct {
	Title       string `json:"title" validate:"required,notblank,max=120"`
	Category    string `json:"category" validate:"required,notblank,max=60"`
	Description string `json:"description" validate:"max=4000"`
	Image       string `json:"image" validate:"omitempty,url"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration    int    `json:"duration" validate:"gte=0,lte=600"`
}

type ClassSearch struct {
	Q        string `form:"q"`
	Category string `form:"category"`
	PageRequest
}

// CatalogService serves classes and public trainer profiles.
type CatalogService struct {
	db          *gorm.DB
	validate    *validator.Validator
	cache       *cache.Cache
	featuredTTL time.Duration
}

func NewCatalogService(db *gorm.DB, v *validator.Validator, c *cache.Cache, featuredTTL time.Duration) *CatalogService {
	return &CatalogService{db: db, validate: v, cache: c, featuredTTL: featuredTTL}
}

func (s *CatalogService) CreateClass(ctx context.Context, actor Actor, in ClassInput) (*models.Class, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	class := models.Class{
		Title:       strings.TrimSpace(in.Title),
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		Image:       in.Image,
		Difficulty:  in.Difficulty,
		Duration:    in.Duration,
	}
	if err := s.db.WithContext(ctx).Create(&class).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	s.invalidate(ctx, featuredCacheKey)
	return &class, nil
}

func (s *CatalogService) ListClasses(ctx context.Context) ([]models.Class, error) {
	classes := []models.Class{}
	if err := s.db.WithContext(ctx).Order("id").Find(&classes).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return classes, nil
}

// FeaturedClasses returns the most booked classes.
func (s *CatalogService) FeaturedClasses(ctx context.Context) ([]models.Class, error) {
	return cache.Remember(ctx, s.cache, featuredCacheKey, s.featuredTTL, func() ([]models.Class, error) {
		classes := []models.Class{}
		if err := s.db.WithContext(ctx).
			Order("bookings DESC").Order("id").
			Limit(featuredLimit).
			Find(&classes).Error; err != nil {
			return nil, apperrors.Internal(err)
		}
		return classes, nil
	})
}

func (s *CatalogService) PagedClasses(ctx context.Context, req PageRequest) (Page[models.Class], error) {
	return Paginate[models.Class](ctx, s.db, "id", req)
}

// SearchClasses matches q case-insensitively against title, description and
// category, optionally narrowed to a category.
func (s *CatalogService) SearchClasses(ctx context.Context, in ClassSearch) (Page[models.Class], error) {
	query := s.db.Model(&models.Class{})
	if q := strings.TrimSpace(in.Q); q != "" {
		p := containsPattern(q)
		query = query.Where(
			"LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\' OR LOWER(category) LIKE ? ESCAPE '\\'",
			p, p, p,
		)
	}
	if cat := strings.TrimSpace(in.Category); cat != "" {
		query = query.Where("LOWER(category) LIKE ? ESCAPE '\\'", containsPattern(cat))
	}
	return Paginate[models.Class](ctx, query, "id", in.PageRequest)
}

func (s *CatalogService) GetClass(ctx context.Context, id uint) (*models.Class, error) {
	var class models.Class
	if err := s.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, notFoundOr(err, "Class")
	}
	return &class, nil
}

// ClassTrainers finds trainers with an expertise tag containing the class title.
func (s *CatalogService) ClassTrainers(ctx context.Context, classID uint, limit int) ([]models.Trainer, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = defaultMatchedLimit
	}

	trainers := []models.Trainer{}
	if err := s.db.WithContext(ctx).
		Where("expertise_text LIKE ? ESCAPE '\\'", containsPattern(class.Title)).
		Order("id").
		Limit(limit).
		Find(&trainers).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return trainers, nil
}

func (s *CatalogService) ListTrainers(ctx context.Context) ([]models.Trainer, error) {
	trainers := []models.Trainer{}
	if err := s.db.WithContext(ctx).Order("id").Find(&trainers).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return trainers, nil
}

// Team is the short list of trainers shown on the landing page.
func (s *CatalogService) Team(ctx context.Context) ([]models.Trainer, error) {
	return cache.Remember(ctx, s.cache, teamCacheKey, s.featuredTTL, func() ([]models.Trainer, error) {
		trainers := []models.Trainer{}
		if err := s.db.WithContext(ctx).Order("id").Limit(teamSize).Find(&trainers).Error; err != nil {
			return nil, apperrors.Internal(err)
		}
		return trainers, nil
	})
}

func (s *CatalogService) GetTrainer(ctx context.Context, id uint) (*models.Trainer, error) {
	var trainer models.Trainer
	if err := s.db.WithContext(ctx).First(&trainer, id).Error; err != nil {
		return nil, notFoundOr(err, "Trainer")
	}
	return &trainer, nil
}

// TrainersBySpecialization matches the specialization field or any expertise tag.
func (s *CatalogService) TrainersBySpecialization(ctx context.Context, specialization string, limit int) ([]models.Trainer, error) {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return nil, apperrors.Validation("Specialization is required", nil)
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = defaultMatchedLimit
	}

	p := containsPattern(specialization)
	trainers := []models.Trainer{}
	if err := s.db.WithContext(ctx).
		Where("LOWER(specialization) LIKE ? ESCAPE '\\' OR expertise_text LIKE ? ESCAPE '\\'", p, p).
		Order("id").
		Limit(limit).
		Find(&trainers).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return trainers, nil
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		logrus.WithError(err).WithField("keys", keys).Warn("failed to invalidate cache")
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
