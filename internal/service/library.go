package service

import (
	"context"
	"fmt"
	"time"

	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LibraryService struct {
	db  *gorm.DB
	cat *catalog.Catalog
	now func() time.Time
}

func NewLibraryService(db *gorm.DB, cat *catalog.Catalog) *LibraryService {
	return &LibraryService{db: db, cat: cat, now: time.Now}
}

type ReadingProgress struct {
	ReadIDs []string `json:"read_ids"`
	Read    int      `json:"read"`
	Total   int      `json:"total"`
}

func (s *LibraryService) Search(category, query string) []catalog.Article {
	return s.cat.SearchArticles(category, query)
}

func (s *LibraryService) Get(id string) (*catalog.Article, error) {
	a, ok := s.cat.Article(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArticle, id)
	}
	return a, nil
}

// MarkRead records the article as read. Marking it again is a no-op.
func (s *LibraryService) MarkRead(ctx context.Context, sc store.Scope, articleID string) error {
	a, err := s.Get(articleID)
	if err != nil {
		return err
	}
	if !sc.Valid() {
		return store.ErrNoScope
	}
	row := &model.ArticleRead{UserID: sc.UserID, ArticleID: a.ID, ReadAt: s.now()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "article_id"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *LibraryService) Unread(ctx context.Context, sc store.Scope, articleID string) error {
	if _, err := s.Get(articleID); err != nil {
		return err
	}
	if !sc.Valid() {
		return store.ErrNoScope
	}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", sc.UserID, articleID).
		Delete(&model.ArticleRead{}).Error
	if err != nil {
		return fmt.Errorf("unread: %w", err)
	}
	return nil
}

func (s *LibraryService) Progress(ctx context.Context, sc store.Scope) (ReadingProgress, error) {
	rows, err := store.List[model.ArticleRead](ctx, s.db, sc, "read_at DESC")
	if err != nil {
		return ReadingProgress{}, err
	}
	p := ReadingProgress{ReadIDs: make([]string, 0, len(rows)), Total: len(s.cat.Articles)}
	for _, r := range rows {
		if _, ok := s.cat.Article(r.ArticleID); ok {
			p.ReadIDs = append(p.ReadIDs, r.ArticleID)
		}
	}
	p.Read = len(p.ReadIDs)
	return p, nil
}
