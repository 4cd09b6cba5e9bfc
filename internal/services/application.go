package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitforge/internal/apperrors"
	"fitforge/internal/cache"
	"fitforge/internal/events"
	"fitforge/internal/metrics"
	"fitforge/internal/models"
	"fitforge/internal/validator"
)

type RejectInput struct {
	RejectionReason string `json:"rejectionReason" validate:"required,notblank,max=1000"`
}

// UserFilter narrows the admin user listing. An empty role lists everyone.
type UserFilter struct {
	Role models.Role `form:"role" json:"role" validate:"omitempty,role"`
}

// ApplicationService runs the member → trainer promotion workflow.
type ApplicationService struct {
	db       *gorm.DB
	validate *validator.Validator
	events   events.Publisher
	cache    *cache.Cache
}

func NewApplicationService(db *gorm.DB, v *validator.Validator, pub events.Publisher, c *cache.Cache) *ApplicationService {
	return &ApplicationService{db: db, validate: v, events: pub, cache: c}
}

// Submit files a pending application for a member. A member may only have one
// pending application at a time.
func (s *ApplicationService) Submit(ctx context.Context, actor Actor, details models.ApplicationDetails) (*models.TrainerApplication, error) {
	if err := actor.require("Only members can apply as trainers", models.RoleMember); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(details); err != nil {
		return nil, err
	}

	app := models.TrainerApplication{
		UserID:             actor.UserID,
		ApplicationDetails: datatypes.NewJSONType(details),
		Status:             models.ApplicationPending,
		AppliedAt:          time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.TrainerApplication{}).
			Where("user_id = ? AND status = ?", actor.UserID, models.ApplicationPending).
			Count(&pending).Error; err != nil {
			return apperrors.Internal(err)
		}
		if pending > 0 {
			return apperrors.Conflict("You already have a pending application")
		}
		if err := tx.Create(&app).Error; err != nil {
			return apperrors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TrainerApplications.WithLabelValues("submitted").Inc()
	logrus.WithFields(logrus.Fields{"application_id": app.ID, "user_id": actor.UserID}).Info("trainer application submitted")
	return &app, nil
}

// Approve promotes the applicant. The role change, the new trainer profile and
// the removal of the application commit together or not at all.
func (s *ApplicationService) Approve(ctx context.Context, id uint, actor Actor) (*models.Trainer, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		app     models.TrainerApplication
		trainer models.Trainer
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error; err != nil {
			return notFoundOr(err, "Application")
		}
		if app.Status != models.ApplicationPending {
			return apperrors.Conflict("Only pending applications can be approved")
		}

		res := tx.Model(&models.User{}).Where("id = ?", app.UserID).Update("role", models.RoleTrainer)
		if res.Error != nil {
			return apperrors.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Applicant")
		}

		trainer = models.NewTrainerFromApplication(app.UserID, app.ApplicationDetails.Data())
		if err := tx.Create(&trainer).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("Applicant already has a trainer profile")
			}
			return apperrors.Internal(err)
		}

		res = tx.Where("status = ?", models.ApplicationPending).Delete(&models.TrainerApplication{}, app.ID)
		if res.Error != nil {
			return apperrors.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Application")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TrainerApplications.WithLabelValues("approved").Inc()
	log := logrus.WithFields(logrus.Fields{"application_id": id, "user_id": app.UserID, "trainer_id": trainer.ID})
	log.Info("trainer application approved")

	if err := s.events.Publish(ctx, events.TrainerApproved{
		ApplicationID: id,
		UserID:        app.UserID,
		TrainerID:     trainer.ID,
		ApprovedBy:    actor.UserID,
		At:            time.Now().UTC(),
	}); err != nil {
		log.WithError(err).Warn("failed to publish approval event")
	}
	if err := s.cache.Invalidate(ctx, teamCacheKey); err != nil {
		log.WithError(err).Warn("failed to invalidate trainer cache")
	}
	return &trainer, nil
}

// Reject marks a pending application rejected. The record is kept so the
// member can see why.
func (s *ApplicationService) Reject(ctx context.Context, id uint, in RejectInput, actor Actor) (*models.TrainerApplication, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.RejectionReason)

	var app models.TrainerApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error; err != nil {
			return notFoundOr(err, "Application")
		}
		if app.Status != models.ApplicationPending {
			return apperrors.Conflict("Only pending applications can be rejected")
		}
		now := time.Now()
		if err := tx.Model(&models.TrainerApplication{}).Where("id = ?", app.ID).Updates(map[string]any{
			"status":           models.ApplicationRejected,
			"rejection_reason": reason,
			"updated_at":       now,
		}).Error; err != nil {
			return apperrors.Internal(err)
		}
		app.Status = models.ApplicationRejected
		app.RejectionReason = reason
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TrainerApplications.WithLabelValues("rejected").Inc()
	log := logrus.WithFields(logrus.Fields{"application_id": id, "user_id": app.UserID})
	log.Info("trainer application rejected")

	if err := s.events.Publish(ctx, events.TrainerRejected{
		ApplicationID: id,
		UserID:        app.UserID,
		Reason:        reason,
		RejectedBy:    actor.UserID,
		At:            time.Now().UTC(),
	}); err != nil {
		log.WithError(err).Warn("failed to publish rejection event")
	}
	return &app, nil
}

func (s *ApplicationService) List(ctx context.Context, actor Actor) ([]models.TrainerApplication, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}
	apps := []models.TrainerApplication{}
	if err := s.db.WithContext(ctx).Order("applied_at DESC").Find(&apps).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return apps, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uint, actor Actor) (*models.TrainerApplication, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}
	var app models.TrainerApplication
	if err := s.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, notFoundOr(err, "Application")
	}
	return &app, nil
}

// ActivityLog lists the caller's own applications, newest first.
func (s *ApplicationService) ActivityLog(ctx context.Context, actor Actor) ([]models.TrainerApplication, error) {
	apps := []models.TrainerApplication{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", actor.UserID).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return apps, nil
}

// ListUsers returns user accounts, optionally only those holding one role.
func (s *ApplicationService) ListUsers(ctx context.Context, actor Actor, filter UserFilter) ([]models.User, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(filter); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	users := []models.User{}
	if err := query.Order("id").Find(&users).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// ListTrainerUsers returns the accounts currently holding the trainer role.
func (s *ApplicationService) ListTrainerUsers(ctx context.Context, actor Actor) ([]models.User, error) {
	return s.ListUsers(ctx, actor, UserFilter{Role: models.RoleTrainer})
}

// Demote turns a trainer back into a member and removes their public profile,
// in one transaction.
func (s *ApplicationService) Demote(ctx context.Context, userID uint, actor Actor) error {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return notFoundOr(err, "User")
		}
		if user.Role != models.RoleTrainer {
			return apperrors.Conflict("User is not a trainer")
		}
		if err := tx.Model(&user).Update("role", models.RoleMember).Error; err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Trainer{}).Error; err != nil {
			return apperrors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log := logrus.WithField("user_id", userID)
	log.Info("trainer demoted to member")
	if err := s.cache.Invalidate(ctx, teamCacheKey); err != nil {
		log.WithError(err).Warn("failed to invalidate trainer cache")
	}
	return nil
}
