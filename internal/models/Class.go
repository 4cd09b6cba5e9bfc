package models

import "time"

// Class is a catalog offering. Bookings only ever goes up and drives the
// featured ranking.
type Class struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Title       string    `gorm:"not null" json:"title"`
	Category    string    `gorm:"index" json:"category"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Difficulty  string    `json:"difficulty,omitempty"`
	Duration    int       `json:"duration,omitempty"` // minutes
	Bookings    int       `gorm:"index;not null;default:0" json:"bookings"`
}
