package models

import "time"

// Slot is a bookable unit of a trainer's time. BookedBy is set once a member claims it.
type Slot struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	TrainerID uint       `gorm:"index;not null" json:"trainerId"` // owning user id
	SlotName  string     `gorm:"not null" json:"slotName"`
	Day       string     `json:"day"`
	Time      string     `json:"time"`
	Duration  int        `json:"duration"` // minutes
	ClassID   *uint      `gorm:"index" json:"classId,omitempty"`
	BookedBy  *uint      `gorm:"index" json:"bookedBy,omitempty"`
	BookedAt  *time.Time `json:"bookedAt,omitempty"`
}
