package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/google/uuid"
)

// UserStore binds a Store to one user so it can serve as the completion
// backend of a tracker and as either side of a data migration.
type UserStore struct {
	store  Store
	userID string
	// idPrefix is prepended to ids minted by CreateHabit.
	idPrefix string
}

// ForUser scopes s to userID. Ids minted through it are durable uuids.
func ForUser(s Store, userID string) *UserStore {
	return &UserStore{store: s, userID: userID}
}

// ForGuest scopes s to the local guest profile. Ids minted through it carry
// habit.LocalIDPrefix until the server assigns durable ones.
func ForGuest(s Store, userID string) *UserStore {
	return &UserStore{store: s, userID: userID, idPrefix: habit.LocalIDPrefix}
}

func (u *UserStore) UserID() string { return u.userID }

func (u *UserStore) ListHabits(_ context.Context) ([]habit.Habit, error) {
	return u.store.ListHabits(u.userID)
}

func (u *UserStore) GetHabit(_ context.Context, habitID string) (habit.Habit, error) {
	return u.store.GetHabit(u.userID, habitID)
}

// CreateHabit assigns an id and creation time when missing and persists h.
func (u *UserStore) CreateHabit(_ context.Context, h habit.Habit) (habit.Habit, error) {
	if err := habit.Validate(h); err != nil {
		return habit.Habit{}, err
	}
	h.ID = u.idPrefix + uuid.NewString()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	if err := u.store.PutHabit(u.userID, h); err != nil {
		return habit.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

func (u *UserStore) UpdateHabit(_ context.Context, h habit.Habit) error {
	if err := habit.Validate(h); err != nil {
		return err
	}
	if _, err := u.store.GetHabit(u.userID, h.ID); err != nil {
		return err
	}
	return u.store.PutHabit(u.userID, h)
}

func (u *UserStore) DeleteHabit(_ context.Context, habitID string) error {
	return u.store.DeleteHabit(u.userID, habitID)
}

func (u *UserStore) LoadCompletions(_ context.Context) (habit.CompletionMap, error) {
	return u.store.LoadCompletions(u.userID)
}

func (u *UserStore) SetCompletion(_ context.Context, habitID, dateKey string, done bool) error {
	return u.store.SetCompletion(u.userID, habitID, dateKey, done)
}

func (u *UserStore) ListNotes(_ context.Context) ([]habit.DailyNote, error) {
	return u.store.ListNotes(u.userID)
}

func (u *UserStore) PutNote(_ context.Context, n habit.DailyNote) error {
	return u.store.PutNote(u.userID, n)
}

func (u *UserStore) DeleteNote(_ context.Context, dateKey string) error {
	return u.store.DeleteNote(u.userID, dateKey)
}

func (u *UserStore) Clear(_ context.Context) error {
	return u.store.ClearUser(u.userID)
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
