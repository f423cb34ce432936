package model

import "github.com/google/uuid"

// ChatMessage is one turn of a coaching conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Message string `json:"message"`
}

type VoiceSessionRequest struct {
	Language     string `json:"language"`
	SystemPrompt string `json:"systemPrompt"`
}

type SignupRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type UserView struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name,omitempty"`
}

// GoalRequest dates accept either YYYY-MM-DD or RFC 3339.
type GoalRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	TargetValue  *float64 `json:"target_value" binding:"omitempty,gte=0"`
	CurrentValue float64  `json:"current_value" binding:"gte=0"`
	Unit         string   `json:"unit"`
	TargetDate   string   `json:"target_date"`
}

type ProgressRequest struct {
	CurrentValue *float64 `json:"current_value" binding:"required,gte=0"`
}

type JournalRequest struct {
	EntryType  string `json:"entry_type"`
	Content    string `json:"content" binding:"required"`
	MoodBefore int    `json:"mood_before" binding:"omitempty,min=1,max=5"`
	MoodAfter  int    `json:"mood_after" binding:"omitempty,min=1,max=5"`
}

type AssessmentRequest struct {
	Responses ScoreMap `json:"responses" binding:"required"`
}

type CompletionRequest struct {
	DurationSeconds int    `json:"duration_seconds" binding:"gte=0"`
	Notes           string `json:"notes"`
}

type NucalmRequest struct {
	SessionDate     string `json:"session_date"`
	DurationMinutes int    `json:"duration_minutes" binding:"gte=0"`
	SessionType     string `json:"session_type"`
	MoodBefore      int    `json:"mood_before" binding:"omitempty,min=1,max=10"`
	MoodAfter       int    `json:"mood_after" binding:"omitempty,min=1,max=10"`
	StressBefore    int    `json:"stress_before" binding:"omitempty,min=1,max=10"`
	StressAfter     int    `json:"stress_after" binding:"omitempty,min=1,max=10"`
	HRVBefore       *int   `json:"hrv_before" binding:"omitempty,min=1,max=300"`
	HRVAfter        *int   `json:"hrv_after" binding:"omitempty,min=1,max=300"`
	Notes           string `json:"notes"`
}

type ProfileRequest struct {
	FullName string `json:"full_name"`
}
