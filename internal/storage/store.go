package storage

import (
	"errors"

	"github.com/Surya5599/habittracker/pkg/habit"
	"golang.org/x/oauth2"
)

var ErrNotFound = errors.New("not found")

type HabitStore interface {
	// ListHabits returns the user's habits ordered by habit.SortByOrder.
	ListHabits(userID string) ([]habit.Habit, error)
	GetHabit(userID, habitID string) (habit.Habit, error)
	PutHabit(userID string, h habit.Habit) error
	// DeleteHabit removes the habit and all of its completions.
	DeleteHabit(userID, habitID string) error
}

type CompletionStore interface {
	SetCompletion(userID, habitID, dateKey string, done bool) error
	LoadCompletions(userID string) (habit.CompletionMap, error)
}

type NoteStore interface {
	PutNote(userID string, n habit.DailyNote) error
	ListNotes(userID string) ([]habit.DailyNote, error)
	// DeleteNote returns ErrNotFound when the day has no note.
	DeleteNote(userID, dateKey string) error
}

type CredentialStore interface {
	PutAPIKey(keyHash, userID string) error
	GetAPIKey(keyHash string) (userID string, found bool, err error)
	ListAPIKeyHashes(userID string) ([]string, error)
	DeleteAPIKey(keyHash string) error

	PutRefreshToken(userID string, tok *oauth2.Token) error
	GetRefreshToken(userID string) (*oauth2.Token, bool, error)
	DeleteRefreshToken(userID string) error
}

type Store interface {
	HabitStore
	CompletionStore
	NoteStore
	CredentialStore
	// ClearUser drops every habit, completion and note of the user.
	ClearUser(userID string) error
	Close() error
}
