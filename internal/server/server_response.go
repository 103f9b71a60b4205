package server

import (
	"github.com/Surya5599/habittracker/pkg/habit"
)

type HabitListResponse struct {
	Habits []habit.Habit `json:"habits"`
}

type HabitSummaryResponse struct {
	HabitID      string             `json:"habit_id"`
	HabitSummary habit.HabitSummary `json:"habit_summary"`
}

type CompletionsResponse struct {
	Completions habit.CompletionMap `json:"completions"`
}

type CompletionRequest struct {
	Done bool `json:"done"`
}

type CompletionResponse struct {
	HabitID string `json:"habit_id"`
	Date    string `json:"date"`
	Done    bool   `json:"done"`
}

type NoteListResponse struct {
	Notes []habit.DailyNote `json:"notes"`
}

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

type APIKeyListResponse struct {
	Keys []APIKeyInfo `json:"keys"`
}

type APIKeyInfo struct {
	KeyHash string `json:"key_hash"`
	Display string `json:"display"`
}
