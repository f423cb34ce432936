package service

import (
	"context"
	"fmt"

	"guardian/internal/cache"
	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const generalCategory = "General"

type AssessmentService struct {
	db    *gorm.DB
	cat   *catalog.Catalog
	cache cache.Cache
}

func NewAssessmentService(db *gorm.DB, cat *catalog.Catalog, c cache.Cache) *AssessmentService {
	return &AssessmentService{db: db, cat: cat, cache: c}
}

// Score is the computed outcome of one completed assessment.
type Score struct {
	TotalScore     float64        `json:"total_score"`
	CategoryScores model.ScoreMap `json:"category_scores"`
	MaxPossible    float64        `json:"max_possible"`
	Percent        float64        `json:"percent"`
	Interpretation catalog.Level  `json:"interpretation"`
}

// AssessmentResult is a stored response together with its interpretation.
type AssessmentResult struct {
	*model.AssessmentResponse
	MaxPossible    float64       `json:"max_possible"`
	Percent        float64       `json:"percent"`
	Interpretation catalog.Level `json:"interpretation"`
}

// ScoreResponses validates answers against the definition and computes the
// total, per-category averages over answered questions and the level.
func ScoreResponses(a *catalog.Assessment, responses model.ScoreMap) (Score, error) {
	if len(responses) == 0 {
		return Score{}, invalid("responses required")
	}
	for id, v := range responses {
		if _, ok := a.Question(id); !ok {
			return Score{}, invalid("Unknown question %q", id)
		}
		if v < float64(a.Scale.Min) || v > float64(a.Scale.Max) {
			return Score{}, invalid("Answer to %q must be between %d and %d", id, a.Scale.Min, a.Scale.Max)
		}
	}

	type acc struct {
		total float64
		count int
	}
	cats := map[string]*acc{}
	for _, q := range a.Questions {
		name := q.Category
		if name == "" {
			name = generalCategory
		}
		c, ok := cats[name]
		if !ok {
			c = &acc{}
			cats[name] = c
		}
		if v, ok := responses[q.ID]; ok {
			c.total += v
			c.count++
		}
	}
	categoryScores := make(model.ScoreMap, len(cats))
	for name, c := range cats {
		categoryScores[name] = round2(mean(c.total, c.count))
	}

	total := 0.0
	for _, v := range responses {
		total += v
	}
	total = round2(total)
	level, pct := a.Interpret(total)
	return Score{
		TotalScore:     total,
		CategoryScores: categoryScores,
		MaxPossible:    a.MaxPossible(),
		Percent:        round1(pct),
		Interpretation: level,
	}, nil
}

func (s *AssessmentService) definition(id string) (*catalog.Assessment, error) {
	a, ok := s.cat.Assessment(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAssessment, id)
	}
	return a, nil
}

func (s *AssessmentService) Submit(ctx context.Context, sc store.Scope, assessmentType string, responses model.ScoreMap) (*AssessmentResult, error) {
	a, err := s.definition(assessmentType)
	if err != nil {
		return nil, err
	}
	score, err := ScoreResponses(a, responses)
	if err != nil {
		return nil, err
	}
	row := &model.AssessmentResponse{
		AssessmentType: a.ID,
		Responses:      datatypes.NewJSONType(responses),
		TotalScore:     score.TotalScore,
		CategoryScores: datatypes.NewJSONType(score.CategoryScores),
	}
	if err := store.Insert(ctx, s.db, sc, row); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, sc)
	return &AssessmentResult{
		AssessmentResponse: row,
		MaxPossible:        score.MaxPossible,
		Percent:            score.Percent,
		Interpretation:     score.Interpretation,
	}, nil
}

// List returns stored responses newest first, optionally for one type.
func (s *AssessmentService) List(ctx context.Context, sc store.Scope, assessmentType string) ([]AssessmentResult, error) {
	var conds []store.Cond
	if assessmentType != "" {
		if _, err := s.definition(assessmentType); err != nil {
			return nil, err
		}
		conds = append(conds, store.Where("assessment_type = ?", assessmentType))
	}
	rows, err := store.List[model.AssessmentResponse](ctx, s.db, sc, "created_at DESC", conds...)
	if err != nil {
		return nil, err
	}
	return s.interpret(rows), nil
}

// Latest returns the most recent response per assessment type.
func (s *AssessmentService) Latest(ctx context.Context, sc store.Scope) (map[string]AssessmentResult, error) {
	rows, err := store.List[model.AssessmentResponse](ctx, s.db, sc, "created_at DESC")
	if err != nil {
		return nil, err
	}
	out := map[string]AssessmentResult{}
	for _, r := range s.interpret(rows) {
		if _, seen := out[r.AssessmentType]; !seen {
			out[r.AssessmentType] = r
		}
	}
	return out, nil
}

func (s *AssessmentService) interpret(rows []model.AssessmentResponse) []AssessmentResult {
	out := make([]AssessmentResult, 0, len(rows))
	for i := range rows {
		r := AssessmentResult{AssessmentResponse: &rows[i]}
		if a, ok := s.cat.Assessment(rows[i].AssessmentType); ok {
			level, pct := a.Interpret(rows[i].TotalScore)
			r.MaxPossible, r.Percent, r.Interpretation = a.MaxPossible(), round1(pct), level
		}
		out = append(out, r)
	}
	return out
}
