package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/Surya5599/habittracker/internal/storage/sqlite/migrations"
	"github.com/Surya5599/habittracker/pkg/habit"
	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "habits.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return store
}

func TestOpen_MigratesToLatest(t *testing.T) {
	store := newTestStore(t)

	version, dirty, err := migrations.Version(store.db)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if dirty || version != 2 {
		t.Fatalf("expected clean version 2, got %d dirty=%v", version, dirty)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s1.PutHabit("u", habit.Habit{ID: "a", Name: "Read", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("PutHabit failed: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()
	habits, err := s2.ListHabits("u")
	if err != nil || len(habits) != 1 {
		t.Fatalf("expected 1 habit after reopen, got %d err=%v", len(habits), err)
	}
}

func TestHabit_RoundTripFields(t *testing.T) {
	store := newTestStore(t)

	target := 3
	created := time.Date(2024, time.March, 4, 10, 30, 0, 0, time.UTC)
	in := habit.Habit{
		ID:           "a",
		Name:         "Gym",
		Color:        "#ff0000",
		Goal:         80,
		WeeklyTarget: &target,
		CreatedAt:    created,
		SortOrder:    4,
	}
	if err := store.PutHabit("u", in); err != nil {
		t.Fatalf("PutHabit failed: %v", err)
	}
	daily := habit.Habit{ID: "b", Name: "Read", Frequency: []time.Weekday{time.Monday, time.Friday}, CreatedAt: created}
	if err := store.PutHabit("u", daily); err != nil {
		t.Fatalf("PutHabit failed: %v", err)
	}

	got, err := store.GetHabit("u", "a")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.WeeklyTarget == nil || *got.WeeklyTarget != 3 {
		t.Fatalf("weekly target lost: %+v", got)
	}
	if got.Frequency != nil {
		t.Fatalf("expected nil frequency, got %v", got.Frequency)
	}
	if !got.CreatedAt.Equal(created) || got.Goal != 80 || got.Color != "#ff0000" || got.SortOrder != 4 {
		t.Fatalf("fields not preserved: %+v", got)
	}

	got, err = store.GetHabit("u", "b")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if len(got.Frequency) != 2 || got.Frequency[1] != time.Friday || got.WeeklyTarget != nil {
		t.Fatalf("frequency not preserved: %+v", got)
	}

	in.Name = "Gym twice"
	if err := store.PutHabit("u", in); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, _ = store.GetHabit("u", "a")
	if got.Name != "Gym twice" {
		t.Fatalf("expected update to overwrite, got %q", got.Name)
	}

	if _, err := store.GetHabit("u", "zzz"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteHabit_Cascades(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"a", "b"} {
		if err := store.PutHabit("u", habit.Habit{ID: id, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("PutHabit failed: %v", err)
		}
		if err := store.SetCompletion("u", id, "2024-01-01", true); err != nil {
			t.Fatalf("SetCompletion failed: %v", err)
		}
	}
	// repeated set is idempotent
	if err := store.SetCompletion("u", "a", "2024-01-01", true); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}

	if err := store.DeleteHabit("u", "a"); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if err := store.DeleteHabit("u", "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	done, err := store.LoadCompletions("u")
	if err != nil {
		t.Fatalf("LoadCompletions failed: %v", err)
	}
	if done.Done("a", "2024-01-01") || !done.Done("b", "2024-01-01") {
		t.Fatalf("unexpected completions after delete: %v", done)
	}

	if err := store.SetCompletion("u", "b", "2024-01-01", false); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}
	done, _ = store.LoadCompletions("u")
	if len(done) != 0 {
		t.Fatalf("expected empty map, got %v", done)
	}
}

func TestNotesAndClear(t *testing.T) {
	store := newTestStore(t)

	_ = store.PutNote("u", habit.DailyNote{DateKey: "2024-01-02", Mood: 2})
	_ = store.PutNote("u", habit.DailyNote{DateKey: "2024-01-01", Journal: "start"})
	_ = store.PutNote("u", habit.DailyNote{DateKey: "2024-01-02", Mood: 4})
	_ = store.PutNote("other", habit.DailyNote{DateKey: "2024-01-01", Mood: 1})
	_ = store.PutHabit("u", habit.Habit{ID: "a", CreatedAt: time.Now()})

	notes, err := store.ListNotes("u")
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(notes) != 2 || notes[0].Journal != "start" || notes[1].Mood != 4 {
		t.Fatalf("unexpected notes: %+v", notes)
	}

	if err := store.ClearUser("u"); err != nil {
		t.Fatalf("ClearUser failed: %v", err)
	}
	notes, _ = store.ListNotes("u")
	habits, _ := store.ListHabits("u")
	if len(notes) != 0 || len(habits) != 0 {
		t.Fatalf("expected cleared user, got %d notes %d habits", len(notes), len(habits))
	}
	notes, _ = store.ListNotes("other")
	if len(notes) != 1 {
		t.Fatalf("other user should keep its note, got %d", len(notes))
	}
}

func TestDeleteNote(t *testing.T) {
	store := newTestStore(t)

	_ = store.PutNote("u", habit.DailyNote{DateKey: "2024-01-02", Mood: 2})
	_ = store.PutNote("other", habit.DailyNote{DateKey: "2024-01-02", Mood: 1})
	if err := store.DeleteNote("u", "2024-01-02"); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if err := store.DeleteNote("u", "2024-01-02"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if notes, _ := store.ListNotes("other"); len(notes) != 1 {
		t.Fatalf("other user's note removed: %+v", notes)
	}
}

func TestCredentials(t *testing.T) {
	store := newTestStore(t)

	if err := store.PutAPIKey("h1", "u"); err != nil {
		t.Fatalf("PutAPIKey failed: %v", err)
	}
	userID, found, err := store.GetAPIKey("h1")
	if err != nil || !found || userID != "u" {
		t.Fatalf("GetAPIKey: %q %v %v", userID, found, err)
	}
	hashes, _ := store.ListAPIKeyHashes("u")
	if len(hashes) != 1 {
		t.Fatalf("expected one hash, got %v", hashes)
	}
	_ = store.DeleteAPIKey("h1")
	if _, found, _ := store.GetAPIKey("h1"); found {
		t.Fatal("expected key to be gone")
	}

	if err := store.PutRefreshToken("u", &oauth2.Token{RefreshToken: "r"}); err != nil {
		t.Fatalf("PutRefreshToken failed: %v", err)
	}
	tok, found, err := store.GetRefreshToken("u")
	if err != nil || !found || tok.RefreshToken != "r" {
		t.Fatalf("GetRefreshToken: %+v %v %v", tok, found, err)
	}
	_ = store.DeleteRefreshToken("u")
	if _, found, _ := store.GetRefreshToken("u"); found {
		t.Fatal("expected token to be gone")
	}
}
