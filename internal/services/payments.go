package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fitforge/internal/apperrors"
	"fitforge/internal/cache"
	"fitforge/internal/events"
	"fitforge/internal/metrics"
	"fitforge/internal/models"
	"fitforge/internal/payments"
	"fitforge/internal/validator"
)

const recentTransactions = 6

type IntentInput struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type BookingInput struct {
	TrainerID       uint                `json:"trainerId" validate:"required"`
	TrainerName     string              `json:"trainerName" validate:"max=120"`
	Slot            string              `json:"slot" validate:"required,notblank,max=120"`
	PackageID       string              `json:"packageId" validate:"required,max=64"`
	PackageName     string              `json:"packageName" validate:"required,notblank,max=120"`
	Price           int64               `json:"price" validate:"gte=0"`
	ClassID         *uint               `json:"classId" validate:"omitempty,gt=0"`
	PaymentIntentID string              `json:"paymentIntentId" validate:"required,max=255"`
	CustomerInfo    models.CustomerInfo `json:"customerInfo" validate:"required"`
}

type BalanceReport struct {
	TotalBalance     int64            `json:"totalBalance"`
	Transactions     []models.Payment `json:"transactions"`
	SubscribersCount int64            `json:"subscribersCount"`
	PaidMembersCount int64            `json:"paidMembersCount"`
}

// PaymentService records bookings paid through the processor and keeps their
// status in step with the processor's webhooks.
type PaymentService struct {
	db       *gorm.DB
	gateway  payments.Gateway
	validate *validator.Validator
	events   events.Publisher
	cache    *cache.Cache
}

func NewPaymentService(db *gorm.DB, gw payments.Gateway, v *validator.Validator, pub events.Publisher, c *cache.Cache) *PaymentService {
	return &PaymentService{db: db, gateway: gw, validate: v, events: pub, cache: c}
}

func (s *PaymentService) CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	intent, err := s.gateway.CreateIntent(ctx, in.Amount, in.Currency)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return nil, apperrors.Unavailable("Payments are not enabled")
		}
		return nil, apperrors.Upstream(err, "Failed to create payment intent")
	}
	return &IntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// Book records a paid booking and bumps the trainer's and class's booking
// counters in the same transaction.
func (s *PaymentService) Book(ctx context.Context, actor Actor, in BookingInput) (*models.Payment, error) {
	if err := actor.require("Access denied", models.RoleMember); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trainer models.Trainer
		if err := tx.First(&trainer, in.TrainerID).Error; err != nil {
			return notFoundOr(err, "Trainer")
		}

		name := strings.TrimSpace(in.TrainerName)
		if name == "" {
			name = trainer.Name
		}
		payment = models.Payment{
			UserID:          actor.UserID,
			TrainerID:       trainer.ID,
			TrainerName:     name,
			Slot:            strings.TrimSpace(in.Slot),
			PackageID:       in.PackageID,
			PackageName:     strings.TrimSpace(in.PackageName),
			Price:           in.Price,
			ClassID:         in.ClassID,
			PaymentIntentID: in.PaymentIntentID,
			CustomerInfo:    datatypes.NewJSONType(in.CustomerInfo),
			PaymentDate:     time.Now(),
			Status:          models.PaymentCompleted,
		}
		if err := tx.Create(&payment).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("Payment is already recorded")
			}
			return apperrors.Internal(err)
		}

		if err := tx.Model(&trainer).UpdateColumn("total_bookings", gorm.Expr("total_bookings + ?", 1)).Error; err != nil {
			return apperrors.Internal(err)
		}
		if in.ClassID != nil {
			res := tx.Model(&models.Class{}).Where("id = ?", *in.ClassID).
				UpdateColumn("bookings", gorm.Expr("bookings + ?", 1))
			if res.Error != nil {
				return apperrors.Internal(res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.NotFound("Class")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_intent_id": payment.PaymentIntentID,
		"user_id":           actor.UserID,
		"trainer_id":        payment.TrainerID,
	}).Info("booking recorded")

	if in.ClassID != nil {
		if err := s.cache.Invalidate(ctx, featuredCacheKey); err != nil {
			logrus.WithError(err).Warn("failed to invalidate featured classes")
		}
	}
	return &payment, nil
}

// HandleWebhook authenticates a processor delivery and applies it. A bad
// signature fails before anything is read from the payload; a storage failure
// returns Internal so the processor retries.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return apperrors.Unavailable("Webhooks are not enabled")
		}
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		logrus.WithError(err).Warn("webhook signature verification failed")
		return apperrors.Validation("Webhook Error: signature verification failed", nil)
	}

	var status models.PaymentStatus
	switch event.Type {
	case payments.EventIntentSucceeded:
		status = models.PaymentCompleted
	case payments.EventIntentFailed:
		status = models.PaymentFailed
	default:
		metrics.WebhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		logrus.WithField("type", event.Type).Debug("unhandled webhook event type")
		return nil
	}

	if err := s.setStatus(ctx, event.PaymentIntentID, status); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, "failed").Inc()
		return err
	}
	metrics.WebhookEvents.WithLabelValues(event.Type, "applied").Inc()
	return nil
}

// setStatus is a plain field set, so redelivered events converge on the same row.
func (s *PaymentService) setStatus(ctx context.Context, intentID string, status models.PaymentStatus) error {
	log := logrus.WithFields(logrus.Fields{"payment_intent_id": intentID, "status": status})

	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("payment_intent_id = ?", intentID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		log.WithError(res.Error).Error("failed to update payment status")
		return apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		log.Warn("webhook for a payment intent with no recorded booking")
		return nil
	}

	log.Info("payment status updated")
	if err := s.events.Publish(ctx, events.PaymentStatusChanged{
		PaymentIntentID: intentID,
		Status:          string(status),
		At:              time.Now().UTC(),
	}); err != nil {
		log.WithError(err).Warn("failed to publish payment event")
	}
	return nil
}

// MemberBookings lists the caller's own payments, newest first.
func (s *PaymentService) MemberBookings(ctx context.Context, actor Actor) ([]models.Payment, error) {
	if err := actor.require("Access denied", models.RoleMember); err != nil {
		return nil, err
	}
	list := []models.Payment{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", actor.UserID).Order("payment_date DESC").Find(&list).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, actor Actor, req PageRequest) (Page[models.Payment], error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return Page[models.Payment]{}, err
	}
	return Paginate[models.Payment](ctx, s.db, "payment_date DESC, id DESC", req)
}

func (s *PaymentService) Balance(ctx context.Context, actor Actor) (*BalanceReport, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	report := BalanceReport{Transactions: []models.Payment{}}

	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentCompleted).
		Select("COALESCE(SUM(price), 0)").
		Scan(&report.TotalBalance).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := db.Order("payment_date DESC, id DESC").Limit(recentTransactions).Find(&report.Transactions).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := db.Model(&models.Subscriber{}).Count(&report.SubscribersCount).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentCompleted).
		Distinct("user_id").
		Count(&report.PaidMembersCount).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &report, nil
}

var exportHeader = []any{
	"ID", "Payment Date", "Status", "Member ID", "Customer", "Customer Email",
	"Trainer", "Package", "Slot", "Price", "Payment Intent",
}

// ExportPayments writes every payment as an xlsx workbook to w.
func (s *PaymentService) ExportPayments(ctx context.Context, actor Actor, w io.Writer) error {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return err
	}

	var rows []models.Payment
	if err := s.db.WithContext(ctx).Order("payment_date DESC, id DESC").Find(&rows).Error; err != nil {
		return apperrors.Internal(err)
	}
	if err := writePaymentsWorkbook(w, rows); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func writePaymentsWorkbook(w io.Writer, rows []models.Payment) error {
	const sheet = "Payments"

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetRow("A1", exportHeader, excelize.RowOpts{StyleID: bold}); err != nil {
		return err
	}
	for i, p := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		customer := p.CustomerInfo.Data()
		if err := sw.SetRow(cell, []any{
			p.ID,
			p.PaymentDate.UTC().Format(time.RFC3339),
			string(p.Status),
			p.UserID,
			customer.Name,
			customer.Email,
			p.TrainerName,
			p.PackageName,
			p.Slot,
			p.Price,
			p.PaymentIntentID,
		}); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return f.Write(w)
}
