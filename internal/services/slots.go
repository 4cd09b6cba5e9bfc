package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fitforge/internal/apperrors"
	"fitforge/internal/models"
	"fitforge/internal/validator"
)

type SlotInput struct {
	SlotName string `json:"slotName" validate:"required,notblank,max=80"`
	Day      string `json:"day" validate:"required,weekday"`
	Time     string `json:"time" validate:"required,hhmm_range"`
	Duration int    `json:"duration" validate:"gte=0,lte=600"`
	ClassID  *uint  `json:"classId" validate:"omitempty,gt=0"`
}

type SlotService struct {
	db       *gorm.DB
	validate *validator.Validator
}

func NewSlotService(db *gorm.DB, v *validator.Validator) *SlotService {
	return &SlotService{db: db, validate: v}
}

// List returns the calling trainer's slots.
func (s *SlotService) List(ctx context.Context, actor Actor) ([]models.Slot, error) {
	if err := actor.require("Access denied", models.RoleTrainer); err != nil {
		return nil, err
	}
	slots := []models.Slot{}
	if err := s.db.WithContext(ctx).Where("trainer_id = ?", actor.UserID).Order("id").Find(&slots).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return slots, nil
}

func (s *SlotService) Create(ctx context.Context, actor Actor, in SlotInput) (*models.Slot, error) {
	if err := actor.require("Access denied", models.RoleTrainer); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if in.ClassID != nil {
		var n int64
		if err := db.Model(&models.Class{}).Where("id = ?", *in.ClassID).Count(&n).Error; err != nil {
			return nil, apperrors.Internal(err)
		}
		if n == 0 {
			return nil, apperrors.NotFound("Class")
		}
	}

	slot := models.Slot{
		TrainerID: actor.UserID,
		SlotName:  strings.TrimSpace(in.SlotName),
		Day:       in.Day,
		Time:      in.Time,
		Duration:  in.Duration,
		ClassID:   in.ClassID,
	}
	if err := db.Create(&slot).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &slot, nil
}

// Delete removes one of the caller's own slots; someone else's slot is reported
// as not found.
func (s *SlotService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.require("Access denied", models.RoleTrainer); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("trainer_id = ?", actor.UserID).Delete(&models.Slot{}, id)
	if res.Error != nil {
		return apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Slot")
	}
	return nil
}

// Book claims a free slot for the calling member. The claim is a single
// conditional update, so two members racing for a slot cannot both win.
func (s *SlotService) Book(ctx context.Context, actor Actor, id uint) (*models.Slot, error) {
	if err := actor.require("Access denied", models.RoleMember); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	now := time.Now()
	res := db.Model(&models.Slot{}).
		Where("id = ? AND booked_by IS NULL", id).
		Updates(map[string]any{"booked_by": actor.UserID, "booked_at": now})
	if res.Error != nil {
		return nil, apperrors.Internal(res.Error)
	}

	var slot models.Slot
	if err := db.First(&slot, id).Error; err != nil {
		return nil, notFoundOr(err, "Slot")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict("Slot is already booked")
	}

	logrus.WithFields(logrus.Fields{"slot_id": id, "user_id": actor.UserID}).Info("slot booked")
	return &slot, nil
}

// Booked lists the slots the calling member has claimed.
func (s *SlotService) Booked(ctx context.Context, actor Actor) ([]models.Slot, error) {
	if err := actor.require("Access denied", models.RoleMember); err != nil {
		return nil, err
	}
	slots := []models.Slot{}
	if err := s.db.WithContext(ctx).Where("booked_by = ?", actor.UserID).Order("booked_at DESC").Find(&slots).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return slots, nil
}
