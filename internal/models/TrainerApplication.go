package models

import (
	"time"

	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationRejected ApplicationStatus = "rejected"
)

// ApplicationDetails is what a member submits when applying to become a trainer.
// The same shape seeds the Trainer profile on approval.
type ApplicationDetails struct {
	FullName        string   `json:"fullName" validate:"required,min=2,max=120"`
	Email           string   `json:"email" validate:"required,email"`
	Age             int      `json:"age" validate:"required,gte=18,lte=100"`
	ProfileImage    string   `json:"profileImage,omitempty" validate:"omitempty,url"`
	Expertise       []string `json:"expertise" validate:"required,min=1,max=15,dive,required,max=60"`
	Specialization  string   `json:"specialization" validate:"required,max=120"`
	Bio             string   `json:"bio,omitempty" validate:"max=2000"`
	ExperienceYears int      `json:"experienceYears" validate:"gte=0,lte=70"`
	AvailableDays   []string `json:"availableDays" validate:"required,min=1,dive,weekday"`
	AvailableTime   string   `json:"availableTime" validate:"required,hhmm_range"`
	SocialLinks     []string `json:"socialLinks,omitempty" validate:"omitempty,max=5,dive,url"`
}

// TrainerApplication links a member to the details they submitted.
// Approval deletes the record; rejection keeps it with a reason.
type TrainerApplication struct {
	ID                 uint                                  `gorm:"primaryKey" json:"id"`
	UserID             uint                                  `gorm:"index;not null" json:"userId"`
	ApplicationDetails datatypes.JSONType[ApplicationDetails] `json:"applicationDetails"`
	Status             ApplicationStatus                     `gorm:"index;not null;default:pending" json:"status"`
	RejectionReason    string                                `json:"rejectionReason,omitempty"`
	AppliedAt          time.Time                             `gorm:"index" json:"appliedAt"`
	UpdatedAt          time.Time                             `json:"updatedAt"`
}
