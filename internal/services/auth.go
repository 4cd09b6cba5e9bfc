package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fitforge/internal/apperrors"
	"fitforge/internal/identity"
	"fitforge/internal/models"
	"fitforge/internal/validator"
)

// TokenIssuer signs a bearer token for a user.
type TokenIssuer interface {
	Generate(user models.User) (string, error)
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,notblank,max=120"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

type ProfileInput struct {
	Name           string `json:"name" validate:"required,notblank,max=120"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type AuthService struct {
	db       *gorm.DB
	tokens   TokenIssuer
	identity identity.Verifier
	validate *validator.Validator
}

func NewAuthService(db *gorm.DB, tokens TokenIssuer, verifier identity.Verifier, v *validator.Validator) *AuthService {
	return &AuthService{db: db, tokens: tokens, identity: verifier, validate: v}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := time.Now()
	user := models.User{
		Email:     in.Email,
		Password:  string(hash),
		Name:      strings.TrimSpace(in.Name),
		Role:      models.RoleMember,
		LastLogin: &now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("User already exists")
		}
		return nil, apperrors.Internal(err)
	}

	logrus.WithField("user_id", user.ID).Info("member registered")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, apperrors.Internal(err)
	}
	// federated-only accounts have no password
	if user.Password == "" {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	if err := s.touchLastLogin(ctx, &user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// LoginWithFirebase exchanges a provider ID token for our own bearer token,
// creating the member on first sight. An existing account with the same email
// is linked only when the provider has verified that address and the account
// has no other provider identity.
func (s *AuthService) LoginWithFirebase(ctx context.Context, in FirebaseLoginInput) (*AuthResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	id, err := s.identity.Verify(ctx, in.IDToken)
	if err != nil {
		if errors.Is(err, identity.ErrDisabled) {
			return nil, apperrors.Unavailable("Federated login is not enabled")
		}
		logrus.WithError(err).Warn("firebase token rejected")
		return nil, apperrors.Unauthorized("Invalid Firebase token")
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, apperrors.Validation("Firebase account has no email address", nil)
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("firebase_uid = ?", id.UID).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			if !id.EmailVerified {
				return apperrors.Conflict("An account with this email already exists; verify the email with the provider first")
			}
			if user.FirebaseUID != nil && *user.FirebaseUID != id.UID {
				return apperrors.Conflict("Account is linked to another identity")
			}
			return tx.Model(&user).Update("firebase_uid", id.UID).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		name := strings.TrimSpace(id.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		uid := id.UID
		user = models.User{
			Email:          email,
			FirebaseUID:    &uid,
			Name:           name,
			ProfilePicture: id.Picture,
			Role:           models.RoleMember,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			logrus.WithFields(logrus.Fields{"firebase_uid": id.UID, "email": email}).Warn("firebase login refused")
			return nil, appErr
		}
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Account is linked to another identity")
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.touchLastLogin(ctx, &user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, actor Actor) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, actor.UserID).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*models.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", actor.UserID).
		Updates(map[string]any{
			"name":            strings.TrimSpace(in.Name),
			"profile_picture": in.ProfilePicture,
		})
	if res.Error != nil {
		return nil, apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("User")
	}
	return s.Me(ctx, actor)
}

func (s *AuthService) touchLastLogin(ctx context.Context, user *models.User) error {
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(user).Update("last_login", now).Error; err != nil {
		return apperrors.Internal(err)
	}
	user.LastLogin = &now
	return nil
}

func (s *AuthService) issue(user models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
