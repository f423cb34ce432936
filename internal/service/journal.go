package service

import (
	"context"
	"strings"
	"time"

	"guardian/internal/cache"
	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultEntryType = "freewrite"
	defaultMood      = 3
)

type JournalService struct {
	db    *gorm.DB
	cat   *catalog.Catalog
	cache cache.Cache
}

func NewJournalService(db *gorm.DB, cat *catalog.Catalog, c cache.Cache) *JournalService {
	return &JournalService{db: db, cat: cat, cache: c}
}

type JournalInput struct {
	EntryType  string
	Content    string
	MoodBefore int
	MoodAfter  int
}

type JournalStats struct {
	Total        int     `json:"total"`
	ThisWeek     int     `json:"this_week"`
	AvgMoodAfter float64 `json:"avg_mood_after"`
	Streak       int     `json:"streak"`
}

func (s *JournalService) normalize(in *JournalInput) error {
	if strings.TrimSpace(in.Content) == "" {
		return invalid("Content is required")
	}
	if !s.cat.HasOption(s.cat.Forms.JournalEntryTypes, in.EntryType) {
		in.EntryType = defaultEntryType
	}
	if in.MoodBefore == 0 {
		in.MoodBefore = defaultMood
	}
	if in.MoodAfter == 0 {
		in.MoodAfter = defaultMood
	}
	if !inRange(in.MoodBefore, 1, 5) || !inRange(in.MoodAfter, 1, 5) {
		return invalid("Mood must be between 1 and 5")
	}
	return nil
}

// List returns entries newest first, optionally narrowed to one entry type
// and to content containing query (case-insensitive).
func (s *JournalService) List(ctx context.Context, sc store.Scope, entryType, query string) ([]model.JournalEntry, error) {
	var conds []store.Cond
	if entryType != "" && entryType != "all" {
		conds = append(conds, store.Where("entry_type = ?", entryType))
	}
	entries, err := store.List[model.JournalEntry](ctx, s.db, sc, "created_at DESC", conds...)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries, nil
	}
	out := entries[:0]
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Content), q) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *JournalService) Create(ctx context.Context, sc store.Scope, in JournalInput) (*model.JournalEntry, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	e := &model.JournalEntry{EntryType: in.EntryType, Content: in.Content, MoodBefore: in.MoodBefore, MoodAfter: in.MoodAfter}
	if err := store.Insert(ctx, s.db, sc, e); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return e, nil
}

func (s *JournalService) Update(ctx context.Context, sc store.Scope, id uuid.UUID, in JournalInput) (*model.JournalEntry, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	e, err := store.Update[model.JournalEntry](ctx, s.db, sc, id, map[string]any{
		"entry_type":  in.EntryType,
		"content":     in.Content,
		"mood_before": in.MoodBefore,
		"mood_after":  in.MoodAfter,
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return e, nil
}

func (s *JournalService) Delete(ctx context.Context, sc store.Scope, id uuid.UUID) error {
	if err := store.Delete[model.JournalEntry](ctx, s.db, sc, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, sc)
	return nil
}

func (s *JournalService) Stats(ctx context.Context, sc store.Scope, now time.Time) (JournalStats, error) {
	entries, err := store.List[model.JournalEntry](ctx, s.db, sc, "created_at DESC")
	if err != nil {
		return JournalStats{}, err
	}
	return SummarizeJournal(entries, now), nil
}

func SummarizeJournal(entries []model.JournalEntry, now time.Time) JournalStats {
	times := make([]time.Time, len(entries))
	sum := 0.0
	for i, e := range entries {
		times[i] = e.CreatedAt
		mood := e.MoodAfter
		if mood == 0 {
			mood = defaultMood
		}
		sum += float64(mood)
	}
	return JournalStats{
		Total:        len(entries),
		ThisWeek:     countSince(times, weekAgo(now)),
		AvgMoodAfter: round1(mean(sum, len(entries))),
		Streak:       StreakDays(times, now),
	}
}
