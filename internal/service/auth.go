package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"guardian/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 6

type AuthService struct{ db *gorm.DB }

func NewAuthService(db *gorm.DB) *AuthService { return &AuthService{db: db} }

type SignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (in *SignupInput) validate() error {
	in.Email = normalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return invalid("Please enter a valid email address")
	}
	if in.Password != in.ConfirmPassword {
		return invalid("Passwords do not match")
	}
	if len(in.Password) < minPasswordLen {
		return invalid("Password must be at least %d characters", minPasswordLen)
	}
	return nil
}

// Signup creates the account and its profile in one transaction.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Email: in.Email, PasswordHash: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		p := &model.Profile{ID: u.ID, FullName: strings.TrimSpace(in.FullName)}
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
