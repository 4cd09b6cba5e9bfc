package models

import "time"

// Subscriber is a newsletter sign-up; no account needed.
type Subscriber struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscribedDate time.Time `json:"subscribedDate"`
	Name           string    `json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
}

// All lists every model the schema is migrated from.
func All() []any {
	return []any{
		&User{}, &TrainerApplication{}, &Trainer{}, &Class{}, &Slot{},
		&Payment{}, &Review{}, &Post{}, &PostVote{}, &Subscriber{},
	}
}
