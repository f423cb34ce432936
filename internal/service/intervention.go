package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"guardian/internal/cache"
	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/store"

	"gorm.io/gorm"
)

type InterventionService struct {
	db    *gorm.DB
	cat   *catalog.Catalog
	cache cache.Cache
	now   func() time.Time
}

func NewInterventionService(db *gorm.DB, cat *catalog.Catalog, c cache.Cache) *InterventionService {
	return &InterventionService{db: db, cat: cat, cache: c, now: time.Now}
}

type InterventionUsage struct {
	Count           int       `json:"count"`
	LastCompletedAt time.Time `json:"last_completed_at"`
}

type InterventionStats struct {
	TotalCompletions    int                          `json:"total_completions"`
	ThisWeekCompletions int                          `json:"this_week_completions"`
	TotalMinutes        int                          `json:"total_minutes"`
	PerIntervention     map[string]InterventionUsage `json:"per_intervention"`
}

func (s *InterventionService) Catalog(category string) []catalog.Intervention {
	return s.cat.InterventionsIn(category)
}

func (s *InterventionService) Get(id string) (*catalog.Intervention, error) {
	iv, ok := s.cat.Intervention(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntervention, id)
	}
	return iv, nil
}

// Complete records that the user finished an intervention. The stored name is
// taken from the catalog, not the client.
func (s *InterventionService) Complete(ctx context.Context, sc store.Scope, interventionID string, durationSeconds int, notes string) (*model.InterventionCompletion, error) {
	iv, err := s.Get(interventionID)
	if err != nil {
		return nil, err
	}
	if durationSeconds < 0 {
		return nil, invalid("Duration must not be negative")
	}
	row := &model.InterventionCompletion{
		InterventionID:   iv.ID,
		InterventionName: iv.Name,
		DurationSeconds:  durationSeconds,
		CompletedAt:      s.now(),
	}
	if n := strings.TrimSpace(notes); n != "" {
		row.Notes = &n
	}
	if err := store.Insert(ctx, s.db, sc, row); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return row, nil
}

func (s *InterventionService) Completions(ctx context.Context, sc store.Scope) ([]model.InterventionCompletion, error) {
	return store.List[model.InterventionCompletion](ctx, s.db, sc, "completed_at DESC")
}

func (s *InterventionService) Stats(ctx context.Context, sc store.Scope, now time.Time) (InterventionStats, error) {
	rows, err := s.Completions(ctx, sc)
	if err != nil {
		return InterventionStats{}, err
	}
	return SummarizeInterventions(rows, now), nil
}

func SummarizeInterventions(rows []model.InterventionCompletion, now time.Time) InterventionStats {
	st := InterventionStats{TotalCompletions: len(rows), PerIntervention: map[string]InterventionUsage{}}
	since := weekAgo(now)
	seconds := 0
	for _, r := range rows {
		seconds += r.DurationSeconds
		if !r.CompletedAt.Before(since) {
			st.ThisWeekCompletions++
		}
		u := st.PerIntervention[r.InterventionID]
		u.Count++
		if r.CompletedAt.After(u.LastCompletedAt) {
			u.LastCompletedAt = r.CompletedAt
		}
		st.PerIntervention[r.InterventionID] = u
	}
	st.TotalMinutes = int(math.Round(float64(seconds) / 60))
	return st
}
