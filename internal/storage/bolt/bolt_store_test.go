package bolt

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/Surya5599/habittracker/pkg/habit"
	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T) (*Store, func()) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return store, cleanup
}

func TestOpen(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestListHabits_Empty(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	habits, err := store.ListHabits("testuser")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 0 {
		t.Fatalf("expected empty list, got %d items", len(habits))
	}
}

func TestPutAndListHabits_Ordered(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	habits := []habit.Habit{
		{ID: "b", Name: "Guitar", SortOrder: 2, CreatedAt: created},
		{ID: "a", Name: "Read", SortOrder: 1, CreatedAt: created},
		{ID: "c", Name: "Run", SortOrder: 1, CreatedAt: created.Add(time.Hour)},
	}
	for _, h := range habits {
		if err := store.PutHabit("testuser", h); err != nil {
			t.Fatalf("PutHabit failed: %v", err)
		}
	}

	got, err := store.ListHabits("testuser")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	want := []string{"a", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %d habits, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if !got[0].CreatedAt.Equal(created) {
		t.Errorf("created_at did not survive storage: %v", got[0].CreatedAt)
	}
}

func TestGetHabit_NotFound(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if _, err := store.GetHabit("testuser", "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.PutHabit("testuser", habit.Habit{ID: "x", Name: "Read"}); err != nil {
		t.Fatalf("PutHabit failed: %v", err)
	}
	if _, err := store.GetHabit("testuser", "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	h, err := store.GetHabit("testuser", "x")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if h.Name != "Read" {
		t.Fatalf("expected Read, got %q", h.Name)
	}
}

func TestCompletions_SetAndUnset(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	for _, k := range []string{"2024-01-01", "2024-01-02"} {
		if err := store.SetCompletion("testuser", "h1", k, true); err != nil {
			t.Fatalf("SetCompletion failed: %v", err)
		}
	}
	if err := store.SetCompletion("testuser", "h1", "2024-01-01", false); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}
	// unsetting an absent entry is a no-op
	if err := store.SetCompletion("testuser", "h2", "2024-01-01", false); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}

	done, err := store.LoadCompletions("testuser")
	if err != nil {
		t.Fatalf("LoadCompletions failed: %v", err)
	}
	if done.Done("h1", "2024-01-01") {
		t.Error("expected 2024-01-01 to be cleared")
	}
	if !done.Done("h1", "2024-01-02") {
		t.Error("expected 2024-01-02 to be done")
	}
	if _, ok := done["h2"]; ok {
		t.Error("expected no entry for h2")
	}
}

func TestDeleteHabit_CascadesCompletions(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	for _, id := range []string{"h1", "h10"} {
		if err := store.PutHabit("testuser", habit.Habit{ID: id, Name: id}); err != nil {
			t.Fatalf("PutHabit failed: %v", err)
		}
		if err := store.SetCompletion("testuser", id, "2024-01-01", true); err != nil {
			t.Fatalf("SetCompletion failed: %v", err)
		}
	}

	if err := store.DeleteHabit("testuser", "h1"); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if err := store.DeleteHabit("testuser", "h1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	done, err := store.LoadCompletions("testuser")
	if err != nil {
		t.Fatalf("LoadCompletions failed: %v", err)
	}
	if done.Done("h1", "2024-01-01") {
		t.Error("expected h1 completions to be removed")
	}
	if !done.Done("h10", "2024-01-01") {
		t.Error("expected h10 completions to survive")
	}
}

func TestDeleteNote(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.DeleteNote("testuser", "2024-01-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing note, got %v", err)
	}
	_ = store.PutNote("testuser", habit.DailyNote{DateKey: "2024-01-01", Mood: 2})
	_ = store.PutNote("testuser", habit.DailyNote{DateKey: "2024-01-02", Mood: 3})
	if err := store.DeleteNote("testuser", "2024-01-01"); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	got, _ := store.ListNotes("testuser")
	if len(got) != 1 || got[0].DateKey != "2024-01-02" {
		t.Fatalf("unexpected notes after delete: %+v", got)
	}
}

func TestNotes(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	notes := []habit.DailyNote{
		{DateKey: "2024-01-03", Mood: 4, Journal: "good"},
		{DateKey: "2024-01-01", Tasks: []habit.Task{{Text: "walk", Done: true}}},
		{DateKey: "2024-01-03", Mood: 5, Journal: "better"},
	}
	for _, n := range notes {
		if err := store.PutNote("testuser", n); err != nil {
			t.Fatalf("PutNote failed: %v", err)
		}
	}

	got, err := store.ListNotes("testuser")
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(got))
	}
	if got[0].DateKey != "2024-01-01" || len(got[0].Tasks) != 1 {
		t.Errorf("unexpected first note: %+v", got[0])
	}
	if got[1].Mood != 5 || got[1].Journal != "better" {
		t.Errorf("expected note to be overwritten, got %+v", got[1])
	}
}

func TestUserIsolation(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.PutHabit("user1", habit.Habit{ID: "a", Name: "Read"}); err != nil {
		t.Fatalf("PutHabit failed: %v", err)
	}
	if err := store.SetCompletion("user1", "a", "2024-01-01", true); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}

	habits, err := store.ListHabits("user2")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 0 {
		t.Fatalf("user2 should see no habits, got %d", len(habits))
	}
	done, err := store.LoadCompletions("user2")
	if err != nil {
		t.Fatalf("LoadCompletions failed: %v", err)
	}
	if len(done) != 0 {
		t.Fatalf("user2 should see no completions, got %v", done)
	}
}

func TestClearUser(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.PutHabit("user1", habit.Habit{ID: "a", Name: "Read"}); err != nil {
		t.Fatalf("PutHabit failed: %v", err)
	}
	if err := store.PutHabit("user2", habit.Habit{ID: "b", Name: "Run"}); err != nil {
		t.Fatalf("PutHabit failed: %v", err)
	}
	if err := store.PutNote("user1", habit.DailyNote{DateKey: "2024-01-01", Mood: 3}); err != nil {
		t.Fatalf("PutNote failed: %v", err)
	}

	if err := store.ClearUser("user1"); err != nil {
		t.Fatalf("ClearUser failed: %v", err)
	}
	// clearing an empty profile succeeds
	if err := store.ClearUser("nobody"); err != nil {
		t.Fatalf("ClearUser on empty user failed: %v", err)
	}

	habits, _ := store.ListHabits("user1")
	notes, _ := store.ListNotes("user1")
	if len(habits) != 0 || len(notes) != 0 {
		t.Fatalf("expected user1 to be empty, got %d habits %d notes", len(habits), len(notes))
	}
	habits, _ = store.ListHabits("user2")
	if len(habits) != 1 {
		t.Fatalf("expected user2 untouched, got %d habits", len(habits))
	}
}

func TestAPIKeys(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.PutAPIKey("hash1", "user1"); err != nil {
		t.Fatalf("PutAPIKey failed: %v", err)
	}
	if err := store.PutAPIKey("hash2", "user1"); err != nil {
		t.Fatalf("PutAPIKey failed: %v", err)
	}
	if err := store.PutAPIKey("hash3", "user2"); err != nil {
		t.Fatalf("PutAPIKey failed: %v", err)
	}

	userID, found, err := store.GetAPIKey("hash1")
	if err != nil || !found || userID != "user1" {
		t.Fatalf("GetAPIKey: got %q found=%v err=%v", userID, found, err)
	}
	if _, found, _ := store.GetAPIKey("nope"); found {
		t.Fatal("expected unknown key to be absent")
	}

	hashes, err := store.ListAPIKeyHashes("user1")
	if err != nil {
		t.Fatalf("ListAPIKeyHashes failed: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 hashes, got %v", hashes)
	}

	if err := store.DeleteAPIKey("hash1"); err != nil {
		t.Fatalf("DeleteAPIKey failed: %v", err)
	}
	if _, found, _ := store.GetAPIKey("hash1"); found {
		t.Fatal("expected deleted key to be absent")
	}
}

func TestRefreshTokens(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if _, found, err := store.GetRefreshToken("user1"); err != nil || found {
		t.Fatalf("expected no token, found=%v err=%v", found, err)
	}

	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	if err := store.PutRefreshToken("user1", tok); err != nil {
		t.Fatalf("PutRefreshToken failed: %v", err)
	}
	got, found, err := store.GetRefreshToken("user1")
	if err != nil || !found {
		t.Fatalf("GetRefreshToken: found=%v err=%v", found, err)
	}
	if got.RefreshToken != "refresh" {
		t.Fatalf("expected refresh token, got %q", got.RefreshToken)
	}

	if err := store.DeleteRefreshToken("user1"); err != nil {
		t.Fatalf("DeleteRefreshToken failed: %v", err)
	}
	if _, found, _ := store.GetRefreshToken("user1"); found {
		t.Fatal("expected token to be deleted")
	}
}
