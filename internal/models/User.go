package models

import "time"

// Role is the single authority field gating every access decision.
type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	FirebaseUID    *string    `gorm:"uniqueIndex" json:"-"`
	Password       string     `json:"-"`
	Name           string     `json:"name"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	Role           Role       `gorm:"index;not null;default:member" json:"role"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}
