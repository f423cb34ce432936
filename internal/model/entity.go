package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Owned rows belong to exactly one user.
type Owned interface {
	Owner() uuid.UUID
	SetOwner(uuid.UUID)
}

// Base is embedded by every user-scoped row.
type Base struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Base) Owner() uuid.UUID       { return b.UserID }
func (b *Base) SetOwner(id uuid.UUID) { b.UserID = id }

type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Profile shares its primary key with the owning user.
type Profile struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

type Goal struct {
	Base
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Category        string     `gorm:"size:32;default:personal" json:"category"`
	TargetValue     *float64   `json:"target_value"`
	CurrentValue    float64    `json:"current_value"`
	Unit            string     `gorm:"size:64" json:"unit"`
	ProgressPercent int        `json:"progress_percent"`
	StartDate       *time.Time `json:"start_date"`
	TargetDate      *time.Time `json:"target_date"`
	Status          string     `gorm:"size:16;index;default:active" json:"status"`
	CompletedAt     *time.Time `json:"completed_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type JournalEntry struct {
	Base
	EntryType  string    `gorm:"size:16;index" json:"entry_type"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	MoodBefore int       `json:"mood_before"`
	MoodAfter  int       `json:"mood_after"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ScoreMap map[string]float64

type AssessmentResponse struct {
	Base
	AssessmentType string                       `gorm:"size:32;index" json:"assessment_type"`
	Responses      datatypes.JSONType[ScoreMap] `json:"responses"`
	TotalScore     float64                      `json:"total_score"`
	CategoryScores datatypes.JSONType[ScoreMap] `json:"category_scores"`
}

type InterventionCompletion struct {
	Base
	InterventionID   string    `gorm:"size:32;index" json:"intervention_id"`
	InterventionName string    `gorm:"size:255" json:"intervention_name"`
	DurationSeconds  int       `json:"duration_seconds"`
	Notes            *string   `gorm:"type:text" json:"notes"`
	CompletedAt      time.Time `gorm:"index" json:"completed_at"`
}

type NucalmSession struct {
	Base
	SessionDate     time.Time `gorm:"index" json:"session_date"`
	DurationMinutes int       `json:"duration_minutes"`
	SessionType     string    `gorm:"size:16" json:"session_type"`
	MoodBefore      int       `json:"mood_before"`
	MoodAfter       int       `json:"mood_after"`
	StressBefore    int       `json:"stress_before"`
	StressAfter     int       `json:"stress_after"`
	HRVBefore       *int      `gorm:"column:hrv_before" json:"hrv_before"`
	HRVAfter        *int      `gorm:"column:hrv_after" json:"hrv_after"`
	Notes           *string   `gorm:"type:text" json:"notes"`
}

// ArticleRead does not embed Base so that the owner can join the unique key.
type ArticleRead struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uk_user_article" json:"user_id"`
	ArticleID string    `gorm:"size:64;not null;uniqueIndex:uk_user_article" json:"article_id"`
	ReadAt    time.Time `json:"read_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *ArticleRead) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *ArticleRead) Owner() uuid.UUID       { return r.UserID }
func (r *ArticleRead) SetOwner(id uuid.UUID) { r.UserID = id }

func (User) TableName() string                   { return "users" }
func (Profile) TableName() string                { return "profiles" }
func (Goal) TableName() string                   { return "goals" }
func (JournalEntry) TableName() string           { return "journal_entries" }
func (AssessmentResponse) TableName() string     { return "assessment_responses" }
func (InterventionCompletion) TableName() string { return "intervention_completions" }
func (NucalmSession) TableName() string          { return "nucalm_sessions" }
func (ArticleRead) TableName() string            { return "article_reads" }

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{}, &Profile{}, &Goal{}, &JournalEntry{}, &AssessmentResponse{},
		&InterventionCompletion{}, &NucalmSession{}, &ArticleRead{},
	}
}
