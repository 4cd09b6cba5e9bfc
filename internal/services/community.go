package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitforge/internal/apperrors"
	"fitforge/internal/models"
	"fitforge/internal/validator"
)

type PostInput struct {
	Title   string `json:"title" validate:"required,notblank,max=200"`
	Content string `json:"content" validate:"required,notblank,max=20000"`
	Image   string `json:"image" validate:"omitempty,url"`
}

type ReviewInput struct {
	TrainerID *uint  `json:"trainerId" validate:"omitempty,gt=0"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback  string `json:"feedback" validate:"required,notblank,max=2000"`
}

type SubscribeInput struct {
	Name  string `json:"name" validate:"required,notblank,max=120"`
	Email string `json:"email" validate:"required,email"`
}

// CommunityService covers forum posts and their votes, reviews and the newsletter.
type CommunityService struct {
	db       *gorm.DB
	validate *validator.Validator
}

func NewCommunityService(db *gorm.DB, v *validator.Validator) *CommunityService {
	return &CommunityService{db: db, validate: v}
}

func withVotes(db *gorm.DB) *gorm.DB { return db.Preload("Votes") }

func (s *CommunityService) CreatePost(ctx context.Context, actor Actor, in PostInput) (*models.Post, error) {
	if err := actor.require("Only admins and trainers can post", models.RoleAdmin, models.RoleTrainer); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	post := models.Post{
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Image:      in.Image,
		Writer:     actor.Email,
		WriterRole: actor.Role,
		Upvotes:    []uint{},
		Downvotes:  []uint{},
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &post, nil
}

// ListPosts pages through posts, newest first.
func (s *CommunityService) ListPosts(ctx context.Context, req PageRequest) (Page[models.Post], error) {
	return Paginate[models.Post](ctx, s.db, "created_at DESC, id DESC", req, withVotes)
}

func (s *CommunityService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Scopes(withVotes).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post")
	}
	return &post, nil
}

// Vote records the caller's vote on a post. One row per (post, voter) holds the
// current direction, so switching moves the voter between the two sets in a
// single statement. Repeating the current vote changes nothing and is a Conflict.
func (s *CommunityService) Vote(ctx context.Context, actor Actor, postID uint, dir models.VoteDirection) (*models.Post, error) {
	if dir != models.VoteUp && dir != models.VoteDown {
		return nil, apperrors.Validation("Unknown vote direction", nil)
	}

	db := s.db.WithContext(ctx)
	var exists int64
	if err := db.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if exists == 0 {
		return nil, apperrors.NotFound("Post")
	}

	vote := models.PostVote{PostID: postID, VoterID: actor.UserID, Direction: dir, UpdatedAt: time.Now()}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "post_votes.direction <> excluded.direction"},
		}},
	}).Create(&vote)
	if res.Error != nil {
		return nil, apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		if dir == models.VoteUp {
			return nil, apperrors.Conflict("You have already upvoted this post")
		}
		return nil, apperrors.Conflict("You have already downvoted this post")
	}

	logrus.WithFields(logrus.Fields{"post_id": postID, "user_id": actor.UserID, "direction": dir}).Debug("post vote recorded")
	return s.GetPost(ctx, postID)
}

func (s *CommunityService) CreateReview(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error) {
	if err := actor.require("Access denied", models.RoleMember); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Select("id", "name").First(&user, actor.UserID).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}
	if in.TrainerID != nil {
		var n int64
		if err := db.Model(&models.Trainer{}).Where("id = ?", *in.TrainerID).Count(&n).Error; err != nil {
			return nil, apperrors.Internal(err)
		}
		if n == 0 {
			return nil, apperrors.NotFound("Trainer")
		}
	}

	review := models.Review{
		UserID:       actor.UserID,
		TrainerID:    in.TrainerID,
		Rating:       in.Rating,
		Feedback:     strings.TrimSpace(in.Feedback),
		ReviewerName: user.Name,
	}
	if err := db.Create(&review).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &review, nil
}

func (s *CommunityService) ListReviews(ctx context.Context) ([]models.Review, error) {
	reviews := []models.Review{}
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return reviews, nil
}

func (s *CommunityService) Subscribe(ctx context.Context, in SubscribeInput) (*models.Subscriber, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	sub := models.Subscriber{
		Name:           strings.TrimSpace(in.Name),
		Email:          in.Email,
		SubscribedDate: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Email is already subscribed")
		}
		return nil, apperrors.Internal(err)
	}
	return &sub, nil
}

func (s *CommunityService) ListSubscribers(ctx context.Context, actor Actor) ([]models.Subscriber, error) {
	if err := actor.require("Access denied", models.RoleAdmin); err != nil {
		return nil, err
	}
	subs := []models.Subscriber{}
	if err := s.db.WithContext(ctx).Order("subscribed_date DESC").Find(&subs).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return subs, nil
}
