package server

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/Surya5599/habittracker/pkg/habit"
	"golang.org/x/oauth2"
)

type memStore struct {
	mu      sync.RWMutex
	habits  map[string]map[string]habit.Habit
	done    map[string]habit.CompletionMap
	notes   map[string]map[string]habit.DailyNote
	apiKeys map[string]string
	tokens  map[string]*oauth2.Token
}

func newMemStore() *memStore {
	return &memStore{
		habits:  map[string]map[string]habit.Habit{},
		done:    map[string]habit.CompletionMap{},
		notes:   map[string]map[string]habit.DailyNote{},
		apiKeys: map[string]string{},
		tokens:  map[string]*oauth2.Token{},
	}
}

func (m *memStore) ListHabits(userID string) ([]habit.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []habit.Habit{}
	for _, h := range m.habits[userID] {
		out = append(out, h)
	}
	habit.SortByOrder(out)
	return out, nil
}

func (m *memStore) GetHabit(userID, habitID string) (habit.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.habits[userID][habitID]
	if !ok {
		return habit.Habit{}, storage.ErrNotFound
	}
	return h, nil
}

func (m *memStore) PutHabit(userID string, h habit.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.habits[userID] == nil {
		m.habits[userID] = map[string]habit.Habit{}
	}
	m.habits[userID][h.ID] = h
	return nil
}

func (m *memStore) DeleteHabit(userID, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.habits[userID][habitID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.habits[userID], habitID)
	m.done[userID].DeleteHabit(habitID)
	return nil
}

func (m *memStore) SetCompletion(userID, habitID, dateKey string, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done[userID] == nil {
		m.done[userID] = habit.CompletionMap{}
	}
	m.done[userID].Set(habitID, dateKey, done)
	return nil
}

func (m *memStore) LoadCompletions(userID string) (habit.CompletionMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.done[userID] == nil {
		return habit.CompletionMap{}, nil
	}
	return m.done[userID].Clone(), nil
}

func (m *memStore) PutNote(userID string, n habit.DailyNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.notes[userID] == nil {
		m.notes[userID] = map[string]habit.DailyNote{}
	}
	m.notes[userID][n.DateKey] = n
	return nil
}

func (m *memStore) ListNotes(userID string) ([]habit.DailyNote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []habit.DailyNote{}
	for _, n := range m.notes[userID] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out, nil
}

func (m *memStore) DeleteNote(userID, dateKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[userID][dateKey]; !ok {
		return storage.ErrNotFound
	}
	delete(m.notes[userID], dateKey)
	return nil
}

func (m *memStore) PutAPIKey(keyHash, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.apiKeys[keyHash] = userID
	return nil
}

func (m *memStore) GetAPIKey(keyHash string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.apiKeys[keyHash]
	return userID, ok, nil
}

func (m *memStore) ListAPIKeyHashes(userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for h, u := range m.apiKeys {
		if u == userID {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, strings.Compare)
	return out, nil
}

func (m *memStore) DeleteAPIKey(keyHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.apiKeys, keyHash)
	return nil
}

func (m *memStore) PutRefreshToken(userID string, tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[userID] = tok
	return nil
}

func (m *memStore) GetRefreshToken(userID string) (*oauth2.Token, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tok, ok := m.tokens[userID]
	return tok, ok, nil
}

func (m *memStore) DeleteRefreshToken(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, userID)
	return nil
}

func (m *memStore) ClearUser(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.habits, userID)
	delete(m.done, userID)
	delete(m.notes, userID)
	return nil
}

func (m *memStore) Close() error {
	return nil
}

var _ storage.Store = (*memStore)(nil)
