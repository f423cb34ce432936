package service

import (
	"context"
	"time"

	"guardian/internal/cache"
	"guardian/internal/logger"
	"guardian/internal/model"
	"guardian/internal/store"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const recentLimit = 3

type DashboardService struct {
	db      *gorm.DB
	cache   cache.Cache
	ttl     time.Duration
	profile *ProfileService
}

func NewDashboardService(db *gorm.DB, c cache.Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{db: db, cache: c, ttl: ttl, profile: NewProfileService(db, c)}
}

type GoalSummary struct {
	Total     int          `json:"total"`
	Active    int          `json:"active"`
	Completed int          `json:"completed"`
	Recent    []model.Goal `json:"recent"`
}

type JournalSummary struct {
	Total   int                  `json:"total"`
	Weekly  int                  `json:"weekly"`
	Streak  int                  `json:"streak"`
	AvgMood float64              `json:"avg_mood"`
	Recent  []model.JournalEntry `json:"recent"`
}

type AssessmentSummary struct {
	Total  int                        `json:"total"`
	Recent []model.AssessmentResponse `json:"recent"`
}

type NucalmSummary struct {
	Sessions           int                   `json:"sessions"`
	Minutes            int                   `json:"minutes"`
	AvgMoodImprovement float64               `json:"avg_mood_improvement"`
	AvgStressReduction float64               `json:"avg_stress_reduction"`
	Recent             []model.NucalmSession `json:"recent"`
}

type InterventionSummary struct {
	Total   int                            `json:"total"`
	Weekly  int                            `json:"weekly"`
	Minutes int                            `json:"minutes"`
	Recent  []model.InterventionCompletion `json:"recent"`
}

type Dashboard struct {
	UserName      string              `json:"user_name"`
	Greeting      string              `json:"greeting"`
	Goals         GoalSummary         `json:"goals"`
	Journal       JournalSummary      `json:"journal"`
	Assessments   AssessmentSummary   `json:"assessments"`
	Nucalm        NucalmSummary       `json:"nucalm"`
	Interventions InterventionSummary `json:"interventions"`
}

// Greeting picks the salutation for the hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func recent[T any](rows []T) []T {
	if len(rows) > recentLimit {
		return rows[:recentLimit]
	}
	return rows
}

// cachedDashboard stamps a summary with the local day and zone it was built
// for, since the weekly counters and the streak depend on both.
type cachedDashboard struct {
	Day string `json:"day"`
	Dashboard
}

func dayStamp(now time.Time) string {
	return now.Format(time.DateOnly) + " " + now.Location().String()
}

// Get builds the summary, serving it from cache when it was built for the
// caller's local day and zone. The greeting is always recomputed.
func (s *DashboardService) Get(ctx context.Context, sc store.Scope, now time.Time) (*Dashboard, error) {
	if !sc.Valid() {
		return nil, store.ErrNoScope
	}
	key := DashboardKey(sc)
	day := dayStamp(now)
	if s.cache != nil {
		var c cachedDashboard
		hit, err := s.cache.Get(ctx, key, &c)
		if err != nil {
			logger.Warn("dashboard.cache_get_failed", "uid", sc.UserID, "err", err)
		}
		if hit && err == nil && c.Day == day {
			c.Greeting = Greeting(now)
			return &c.Dashboard, nil
		}
	}

	d, err := s.build(ctx, sc, now)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedDashboard{Day: day, Dashboard: *d}, s.ttl); err != nil {
			logger.Warn("dashboard.cache_set_failed", "uid", sc.UserID, "err", err)
		}
	}
	return d, nil
}

func (s *DashboardService) build(ctx context.Context, sc store.Scope, now time.Time) (*Dashboard, error) {
	var (
		profile       *ProfileView
		goals         []model.Goal
		journal       []model.JournalEntry
		assessments   []model.AssessmentResponse
		nucalm        []model.NucalmSession
		interventions []model.InterventionCompletion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = s.profile.Get(gctx, sc)
		return err
	})
	g.Go(func() (err error) {
		goals, err = store.List[model.Goal](gctx, s.db, sc, "created_at DESC")
		return err
	})
	g.Go(func() (err error) {
		journal, err = store.List[model.JournalEntry](gctx, s.db, sc, "created_at DESC")
		return err
	})
	g.Go(func() (err error) {
		assessments, err = store.List[model.AssessmentResponse](gctx, s.db, sc, "created_at DESC")
		return err
	})
	g.Go(func() (err error) {
		nucalm, err = store.List[model.NucalmSession](gctx, s.db, sc, "session_date DESC")
		return err
	})
	g.Go(func() (err error) {
		interventions, err = store.List[model.InterventionCompletion](gctx, s.db, sc, "completed_at DESC")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	gs := SummarizeGoals(goals)
	js := SummarizeJournal(journal, now)
	ns := SummarizeNucalm(nucalm, now)
	is := SummarizeInterventions(interventions, now)
	return &Dashboard{
		UserName: profile.DisplayName(),
		Greeting: Greeting(now),
		Goals: GoalSummary{
			Total: gs.Total, Active: gs.Active, Completed: gs.Completed, Recent: recent(goals),
		},
		Journal: JournalSummary{
			Total: js.Total, Weekly: js.ThisWeek, Streak: js.Streak, AvgMood: js.AvgMoodAfter, Recent: recent(journal),
		},
		Assessments: AssessmentSummary{Total: len(assessments), Recent: recent(assessments)},
		Nucalm: NucalmSummary{
			Sessions: ns.TotalSessions, Minutes: ns.TotalMinutes,
			AvgMoodImprovement: ns.AvgMoodImprovement, AvgStressReduction: ns.AvgStressReduction,
			Recent: recent(nucalm),
		},
		Interventions: InterventionSummary{
			Total: is.TotalCompletions, Weekly: is.ThisWeekCompletions, Minutes: is.TotalMinutes, Recent: recent(interventions),
		},
	}, nil
}
