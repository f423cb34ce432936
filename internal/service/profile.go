package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guardian/internal/cache"
	"guardian/internal/model"
	"guardian/internal/store"

	"gorm.io/gorm"
)

type ProfileService struct {
	db    *gorm.DB
	cache cache.Cache
}

func NewProfileService(db *gorm.DB, c cache.Cache) *ProfileService {
	return &ProfileService{db: db, cache: c}
}

// ProfileView joins the account email onto the profile row.
type ProfileView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is the name the dashboard greets the user with.
func (p ProfileView) DisplayName() string {
	if n := strings.TrimSpace(p.FullName); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok && local != "" {
		return local
	}
	return "Officer"
}

func (s *ProfileService) Get(ctx context.Context, sc store.Scope) (*ProfileView, error) {
	if !sc.Valid() {
		return nil, store.ErrNoScope
	}
	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", sc.UserID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	v := &ProfileView{ID: u.ID.String(), Email: u.Email, CreatedAt: u.CreatedAt}
	var p model.Profile
	err := s.db.WithContext(ctx).Where("id = ?", sc.UserID).First(&p).Error
	switch {
	case err == nil:
		v.FullName, v.CreatedAt, v.UpdatedAt = p.FullName, p.CreatedAt, p.UpdatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return v, nil
}

// Update sets the full name, creating the profile row if it is missing.
func (s *ProfileService) Update(ctx context.Context, sc store.Scope, fullName string) (*ProfileView, error) {
	if !sc.Valid() {
		return nil, store.ErrNoScope
	}
	name := strings.TrimSpace(fullName)
	if len(name) > 255 {
		return nil, invalid("Full name is too long")
	}
	p := model.Profile{ID: sc.UserID}
	err := s.db.WithContext(ctx).
		Where(model.Profile{ID: sc.UserID}).
		Assign(map[string]any{"full_name": name}).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	invalidate(ctx, s.cache, sc)
	return s.Get(ctx, sc)
}
