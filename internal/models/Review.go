package models

import "time"

type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	UserID       uint      `gorm:"index;not null" json:"userId"`
	TrainerID    *uint     `gorm:"index" json:"trainerId,omitempty"`
	Rating       int       `gorm:"not null" json:"rating"`
	Feedback     string    `json:"feedback"`
	ReviewerName string    `json:"reviewerName,omitempty"`
}
