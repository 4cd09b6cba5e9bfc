package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Trainer is the public profile of a promoted user. It only ever comes into
// existence through application approval.
type Trainer struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
	UserID          uint                        `gorm:"uniqueIndex;not null" json:"userId"`
	Name            string                      `json:"name"`
	Email           string                      `json:"email"`
	Age             int                         `json:"age,omitempty"`
	ProfileImage    string                      `json:"profileImage,omitempty"`
	Expertise       datatypes.JSONSlice[string] `json:"expertise"`
	Specialization  string                      `gorm:"index" json:"specialization"`
	Bio             string                      `json:"bio,omitempty"`
	ExperienceYears int                         `json:"experienceYears"`
	AvailableDays   datatypes.JSONSlice[string] `json:"availableDays"`
	AvailableTime   string                      `json:"availableTime"`
	SocialLinks     datatypes.JSONSlice[string] `json:"socialLinks,omitempty"`
	TotalBookings   int                         `gorm:"not null;default:0" json:"totalBookings"`

	// lower-cased expertise tags joined by "|", kept for portable substring search
	ExpertiseText string `gorm:"index" json:"-"`
}

// NewTrainerFromApplication builds the profile a member gets on approval.
func NewTrainerFromApplication(userID uint, d ApplicationDetails) Trainer {
	return Trainer{
		UserID:          userID,
		Name:            d.FullName,
		Email:           d.Email,
		Age:             d.Age,
		ProfileImage:    d.ProfileImage,
		Expertise:       datatypes.JSONSlice[string](d.Expertise),
		Specialization:  d.Specialization,
		Bio:             d.Bio,
		ExperienceYears: d.ExperienceYears,
		AvailableDays:   datatypes.JSONSlice[string](d.AvailableDays),
		AvailableTime:   d.AvailableTime,
		SocialLinks:     datatypes.JSONSlice[string](d.SocialLinks),
	}
}

func (t *Trainer) BeforeSave(*gorm.DB) error {
	t.ExpertiseText = strings.ToLower(strings.Join(t.Expertise, "|"))
	return nil
}
