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

const customSession = "custom"

type NucalmService struct {
	db    *gorm.DB
	cat   *catalog.Catalog
	cache cache.Cache
	now   func() time.Time
}

func NewNucalmService(db *gorm.DB, cat *catalog.Catalog, c cache.Cache) *NucalmService {
	return &NucalmService{db: db, cat: cat, cache: c, now: time.Now}
}

type NucalmInput struct {
	SessionDate     time.Time
	DurationMinutes int
	SessionType     string
	MoodBefore      int
	MoodAfter       int
	StressBefore    int
	StressAfter     int
	HRVBefore       *int
	HRVAfter        *int
	Notes           string
}

type NucalmStats struct {
	TotalSessions      int      `json:"total_sessions"`
	TotalMinutes       int      `json:"total_minutes"`
	AvgMoodImprovement float64  `json:"avg_mood_improvement"`
	AvgStressReduction float64  `json:"avg_stress_reduction"`
	ThisWeek           int      `json:"this_week"`
	AvgHRVImprovement  *float64 `json:"avg_hrv_improvement"`
}

func (s *NucalmService) normalize(in *NucalmInput) error {
	if in.SessionType == "" {
		in.SessionType = "rescue"
	}
	opt, ok := s.cat.SessionType(in.SessionType)
	if !ok {
		return invalid("Unknown session type %q", in.SessionType)
	}
	if in.DurationMinutes == 0 && in.SessionType != customSession {
		in.DurationMinutes = opt.Duration
	}
	if in.DurationMinutes <= 0 {
		return invalid("Duration must be positive")
	}
	if in.SessionDate.IsZero() {
		in.SessionDate = s.now()
	}
	defaults := []struct {
		v   *int
		def int
	}{{&in.MoodBefore, 5}, {&in.MoodAfter, 7}, {&in.StressBefore, 6}, {&in.StressAfter, 3}}
	for _, d := range defaults {
		if *d.v == 0 {
			*d.v = d.def
		}
		if !inRange(*d.v, 1, 10) {
			return invalid("Mood and stress must be between 1 and 10")
		}
	}
	for _, h := range []*int{in.HRVBefore, in.HRVAfter} {
		if h != nil && !inRange(*h, 1, 300) {
			return invalid("HRV must be between 1 and 300")
		}
	}
	return nil
}

func (in NucalmInput) notes() *string {
	n := strings.TrimSpace(in.Notes)
	if n == "" {
		return nil
	}
	return &n
}

func (s *NucalmService) List(ctx context.Context, sc store.Scope) ([]model.NucalmSession, error) {
	return store.List[model.NucalmSession](ctx, s.db, sc, "session_date DESC")
}

func (s *NucalmService) Create(ctx context.Context, sc store.Scope, in NucalmInput) (*model.NucalmSession, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	row := &model.NucalmSession{
		SessionDate:     in.SessionDate,
		DurationMinutes: in.DurationMinutes,
		SessionType:     in.SessionType,
		MoodBefore:      in.MoodBefore,
		MoodAfter:       in.MoodAfter,
		StressBefore:    in.StressBefore,
		StressAfter:     in.StressAfter,
		HRVBefore:       in.HRVBefore,
		HRVAfter:        in.HRVAfter,
		Notes:           in.notes(),
	}
	if err := store.Insert(ctx, s.db, sc, row); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return row, nil
}

func (s *NucalmService) Update(ctx context.Context, sc store.Scope, id uuid.UUID, in NucalmInput) (*model.NucalmSession, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	row, err := store.Update[model.NucalmSession](ctx, s.db, sc, id, map[string]any{
		"session_date":     in.SessionDate,
		"duration_minutes": in.DurationMinutes,
		"session_type":     in.SessionType,
		"mood_before":      in.MoodBefore,
		"mood_after":       in.MoodAfter,
		"stress_before":    in.StressBefore,
		"stress_after":     in.StressAfter,
		"hrv_before":       in.HRVBefore,
		"hrv_after":        in.HRVAfter,
		"notes":            in.notes(),
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return row, nil
}

func (s *NucalmService) Delete(ctx context.Context, sc store.Scope, id uuid.UUID) error {
	if err := store.Delete[model.NucalmSession](ctx, s.db, sc, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, sc)
	return nil
}

func (s *NucalmService) Stats(ctx context.Context, sc store.Scope, now time.Time) (NucalmStats, error) {
	rows, err := s.List(ctx, sc)
	if err != nil {
		return NucalmStats{}, err
	}
	return SummarizeNucalm(rows, now), nil
}

// SummarizeNucalm averages improvements over all sessions. The HRV average
// only covers sessions with both readings and is nil when there are none.
func SummarizeNucalm(rows []model.NucalmSession, now time.Time) NucalmStats {
	st := NucalmStats{TotalSessions: len(rows)}
	since := weekAgo(now)
	var mood, stress, hrv float64
	hrvN := 0
	for _, r := range rows {
		st.TotalMinutes += r.DurationMinutes
		mood += float64(r.MoodAfter - r.MoodBefore)
		stress += float64(r.StressBefore - r.StressAfter)
		if !r.SessionDate.Before(since) {
			st.ThisWeek++
		}
		if r.HRVBefore != nil && r.HRVAfter != nil {
			hrv += float64(*r.HRVAfter - *r.HRVBefore)
			hrvN++
		}
	}
	st.AvgMoodImprovement = round1(mean(mood, len(rows)))
	st.AvgStressReduction = round1(mean(stress, len(rows)))
	if hrvN > 0 {
		avg := round1(hrv / float64(hrvN))
		st.AvgHRVImprovement = &avg
	}
	return st
}
