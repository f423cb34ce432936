package service

import (
	"context"
	"math"
	"strings"
	"time"

	"guardian/internal/cache"
	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalService struct {
	db    *gorm.DB
	cat   *catalog.Catalog
	cache cache.Cache
	now   func() time.Time
}

func NewGoalService(db *gorm.DB, cat *catalog.Catalog, c cache.Cache) *GoalService {
	return &GoalService{db: db, cat: cat, cache: c, now: time.Now}
}

type GoalInput struct {
	Title        string
	Description  string
	Category     string
	TargetValue  *float64
	CurrentValue float64
	Unit         string
	TargetDate   *time.Time
}

type GoalStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Completed   int `json:"completed"`
	AvgProgress int `json:"avg_progress"`
}

// ProgressPercent is round(current/target*100) clamped to [0,100]; a goal
// without a positive target has no measurable progress.
func ProgressPercent(current float64, target *float64) int {
	if target == nil || *target <= 0 {
		return 0
	}
	p := int(math.Round(current / *target * 100))
	return min(max(p, 0), 100)
}

// applyProgress derives progress and status. Completion is sticky on
// completed_at so repeated saves at 100% keep the first timestamp.
func applyProgress(g *model.Goal, now time.Time) {
	g.ProgressPercent = ProgressPercent(g.CurrentValue, g.TargetValue)
	if g.ProgressPercent >= 100 {
		g.Status = model.GoalCompleted
		if g.CompletedAt == nil {
			g.CompletedAt = &now
		}
		return
	}
	g.Status = model.GoalActive
	g.CompletedAt = nil
}

func (s *GoalService) normalize(in *GoalInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("Title is required")
	}
	if in.Category == "" {
		in.Category = "personal"
	}
	if !s.cat.HasOption(s.cat.Forms.GoalCategories, in.Category) {
		return invalid("Unknown category %q", in.Category)
	}
	if in.TargetValue != nil && *in.TargetValue < 0 {
		return invalid("Target value must not be negative")
	}
	return nil
}

func (s *GoalService) List(ctx context.Context, sc store.Scope, filter string) ([]model.Goal, error) {
	switch filter {
	case "", "all":
		return store.List[model.Goal](ctx, s.db, sc, "created_at DESC")
	case model.GoalActive, model.GoalCompleted:
		return store.List[model.Goal](ctx, s.db, sc, "created_at DESC", store.Where("status = ?", filter))
	default:
		return nil, invalid("Unknown filter %q", filter)
	}
}

func (s *GoalService) Get(ctx context.Context, sc store.Scope, id uuid.UUID) (*model.Goal, error) {
	return store.Get[model.Goal](ctx, s.db, sc, id)
}

func (s *GoalService) Create(ctx context.Context, sc store.Scope, in GoalInput) (*model.Goal, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	now := s.now()
	g := &model.Goal{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		TargetValue:  in.TargetValue,
		CurrentValue: in.CurrentValue,
		Unit:         in.Unit,
		TargetDate:   in.TargetDate,
		StartDate:    &now,
	}
	applyProgress(g, now)
	if err := store.Insert(ctx, s.db, sc, g); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return g, nil
}

func (s *GoalService) Update(ctx context.Context, sc store.Scope, id uuid.UUID, in GoalInput) (*model.Goal, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	g, err := store.Get[model.Goal](ctx, s.db, sc, id)
	if err != nil {
		return nil, err
	}
	g.Title, g.Description, g.Category, g.Unit = in.Title, in.Description, in.Category, in.Unit
	g.TargetValue, g.CurrentValue, g.TargetDate = in.TargetValue, in.CurrentValue, in.TargetDate
	applyProgress(g, s.now())
	return s.save(ctx, sc, g)
}

// SetProgress records a new current value and re-derives status.
func (s *GoalService) SetProgress(ctx context.Context, sc store.Scope, id uuid.UUID, current float64) (*model.Goal, error) {
	g, err := store.Get[model.Goal](ctx, s.db, sc, id)
	if err != nil {
		return nil, err
	}
	g.CurrentValue = current
	applyProgress(g, s.now())
	return s.save(ctx, sc, g)
}

// Toggle flips between active and completed. Completing forces 100%;
// reopening falls back to the progress the values imply, held below 100 so
// an active goal never reads as complete.
func (s *GoalService) Toggle(ctx context.Context, sc store.Scope, id uuid.UUID) (*model.Goal, error) {
	g, err := store.Get[model.Goal](ctx, s.db, sc, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if g.Status == model.GoalCompleted {
		g.Status = model.GoalActive
		g.CompletedAt = nil
		g.ProgressPercent = ProgressPercent(g.CurrentValue, g.TargetValue)
		if g.ProgressPercent >= 100 {
			g.ProgressPercent = 99
		}
	} else {
		g.Status = model.GoalCompleted
		g.CompletedAt = &now
		g.ProgressPercent = 100
	}
	return s.save(ctx, sc, g)
}

func (s *GoalService) save(ctx context.Context, sc store.Scope, g *model.Goal) (*model.Goal, error) {
	out, err := store.Update[model.Goal](ctx, s.db, sc, g.ID, map[string]any{
		"title":            g.Title,
		"description":      g.Description,
		"category":         g.Category,
		"target_value":     g.TargetValue,
		"current_value":    g.CurrentValue,
		"unit":             g.Unit,
		"target_date":      g.TargetDate,
		"progress_percent": g.ProgressPercent,
		"status":           g.Status,
		"completed_at":     g.CompletedAt,
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return out, nil
}

func (s *GoalService) Delete(ctx context.Context, sc store.Scope, id uuid.UUID) error {
	if err := store.Delete[model.Goal](ctx, s.db, sc, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, sc)
	return nil
}

func (s *GoalService) Stats(ctx context.Context, sc store.Scope) (GoalStats, error) {
	goals, err := store.List[model.Goal](ctx, s.db, sc, "")
	if err != nil {
		return GoalStats{}, err
	}
	return SummarizeGoals(goals), nil
}

func SummarizeGoals(goals []model.Goal) GoalStats {
	st := GoalStats{Total: len(goals)}
	sum := 0
	for _, g := range goals {
		switch g.Status {
		case model.GoalActive:
			st.Active++
		case model.GoalCompleted:
			st.Completed++
		}
		sum += g.ProgressPercent
	}
	st.AvgProgress = int(math.Round(mean(float64(sum), len(goals))))
	return st
}
