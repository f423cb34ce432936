// Package store is the user-scoped data access layer. Every read and write is
// filtered by the caller's Scope, so a row owned by another user behaves as if
// it does not exist.
package store

import (
	"context"
	"errors"
	"fmt"

	"guardian/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrNoScope  = errors.New("no authenticated user")
)

// Scope identifies the signed-in user a request acts for.
type Scope struct {
	UserID uuid.UUID
}

func (s Scope) Valid() bool { return s.UserID != uuid.Nil }

// Cond is an extra WHERE clause applied after the owner filter.
type Cond struct {
	Query string
	Args  []any
}

func Where(query string, args ...any) Cond { return Cond{Query: query, Args: args} }

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func owned(ctx context.Context, db *gorm.DB, sc Scope) (*gorm.DB, error) {
	if !sc.Valid() {
		return nil, ErrNoScope
	}
	return db.WithContext(ctx).Where("user_id = ?", sc.UserID), nil
}

// List returns the caller's rows of T in the given order.
func List[T any](ctx context.Context, db *gorm.DB, sc Scope, order string, conds ...Cond) ([]T, error) {
	q, err := owned(ctx, db, sc)
	if err != nil {
		return nil, err
	}
	for _, c := range conds {
		q = q.Where(c.Query, c.Args...)
	}
	if order != "" {
		q = q.Order(order)
	}
	rows := []T{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", tableOf[T](db), err)
	}
	return rows, nil
}

func Count[T any](ctx context.Context, db *gorm.DB, sc Scope, conds ...Cond) (int64, error) {
	q, err := owned(ctx, db, sc)
	if err != nil {
		return 0, err
	}
	for _, c := range conds {
		q = q.Where(c.Query, c.Args...)
	}
	var n int64
	if err := q.Model(new(T)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", tableOf[T](db), err)
	}
	return n, nil
}

func Get[T any](ctx context.Context, db *gorm.DB, sc Scope, id uuid.UUID) (*T, error) {
	q, err := owned(ctx, db, sc)
	if err != nil {
		return nil, err
	}
	var row T
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", tableOf[T](db), err)
	}
	return &row, nil
}

// Insert stamps the caller as owner and writes row.
func Insert[T any](ctx context.Context, db *gorm.DB, sc Scope, row *T) error {
	if !sc.Valid() {
		return ErrNoScope
	}
	o, ok := any(row).(model.Owned)
	if !ok {
		return fmt.Errorf("insert %T: not an owned row", row)
	}
	o.SetOwner(sc.UserID)
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert %s: %w", tableOf[T](db), err)
	}
	return nil
}

// Update applies patch to the caller's row and returns it re-read.
func Update[T any](ctx context.Context, db *gorm.DB, sc Scope, id uuid.UUID, patch map[string]any) (*T, error) {
	if _, err := Get[T](ctx, db, sc, id); err != nil {
		return nil, err
	}
	err := db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND user_id = ?", id, sc.UserID).
		Updates(patch).Error
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", tableOf[T](db), err)
	}
	return Get[T](ctx, db, sc, id)
}

func Delete[T any](ctx context.Context, db *gorm.DB, sc Scope, id uuid.UUID) error {
	q, err := owned(ctx, db, sc)
	if err != nil {
		return err
	}
	res := q.Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", tableOf[T](db), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func tableOf[T any](db *gorm.DB) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return stmt.Schema.Table
}
