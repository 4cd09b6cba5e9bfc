package models

import (
	"time"

	"gorm.io/gorm"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"date"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"not null" json:"content"`
	Image      string    `json:"image,omitempty"`
	Writer     string    `gorm:"index" json:"writer"` // author email
	WriterRole Role      `json:"writerRole"`

	Votes     []PostVote `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Upvotes   []uint     `gorm:"-" json:"upvotes"`
	Downvotes []uint     `gorm:"-" json:"downvotes"`
}

// PostVote holds one voter's current vote on a post. The (post, voter) primary
// key is what keeps an identity out of both vote sets at once.
type PostVote struct {
	PostID    uint          `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	VoterID   uint          `gorm:"primaryKey;autoIncrement:false" json:"voterId"`
	Direction VoteDirection `gorm:"not null" json:"direction"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// AfterFind splits preloaded votes into the two exposed sets.
func (p *Post) AfterFind(*gorm.DB) error {
	p.Upvotes = []uint{}
	p.Downvotes = []uint{}
	for _, v := range p.Votes {
		switch v.Direction {
		case VoteUp:
			p.Upvotes = append(p.Upvotes, v.VoterID)
		case VoteDown:
			p.Downvotes = append(p.Downvotes, v.VoterID)
		}
	}
	return nil
}
