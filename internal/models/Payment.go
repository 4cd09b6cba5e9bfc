package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type CustomerInfo struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// Payment is a booking of a trainer package, keyed by the processor's payment intent id.
type Payment struct {
	ID              uint                            `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time                       `json:"createdAt"`
	UpdatedAt       time.Time                       `json:"updatedAt"`
	UserID          uint                            `gorm:"index;not null" json:"userId"`
	TrainerID       uint                            `gorm:"index;not null" json:"trainerId"`
	TrainerName     string                          `json:"trainerName"`
	Slot            string                          `json:"slot"`
	PackageID       string                          `json:"packageId"`
	PackageName     string                          `json:"packageName"`
	Price           int64                           `json:"price"` // smallest currency unit
	ClassID         *uint                           `gorm:"index" json:"classId,omitempty"`
	PaymentIntentID string                          `gorm:"uniqueIndex;not null" json:"paymentIntentId"`
	CustomerInfo    datatypes.JSONType[CustomerInfo] `json:"customerInfo"`
	PaymentDate     time.Time                       `gorm:"index" json:"paymentDate"`
	Status          PaymentStatus                   `gorm:"index;not null" json:"status"`
}
