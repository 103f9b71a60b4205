package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Surya5599/habittracker/internal/config"
	"github.com/Surya5599/habittracker/internal/migrate"
	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/internal/server"
	"github.com/Surya5599/habittracker/internal/storage"
	boltstore "github.com/Surya5599/habittracker/internal/storage/bolt"
	"github.com/Surya5599/habittracker/internal/tracker"
	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ tracker.Backend     = (*Client)(nil)
	_ migrate.Destination = (*Client)(nil)
)

func newTestClient(t *testing.T) (*Client, storage.Store) {
	t.Helper()
	st, err := boltstore.Open(filepath.Join(t.TempDir(), "habits.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.Timezone = "UTC"
	srv, err := server.New(cfg, st)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", ""), st
}

func TestClient_HabitLifecycle(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	created, err := c.CreateHabit(ctx, habit.Habit{Name: "Read", Goal: 15})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	habits, err := c.ListHabits(ctx)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "Read", habits[0].Name)

	created.Name = "Read more"
	require.NoError(t, c.UpdateHabit(ctx, created))
	got, err := c.GetHabit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read more", got.Name)

	require.NoError(t, c.DeleteHabit(ctx, created.ID))
	_, err = c.GetHabit(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClient_CompletionsAndNotes(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	h, err := c.CreateHabit(ctx, habit.Habit{Name: "Run"})
	require.NoError(t, err)
	require.NoError(t, c.SetCompletion(ctx, h.ID, "2024-06-10", true))

	done, err := c.LoadCompletions(ctx)
	require.NoError(t, err)
	assert.True(t, done.Done(h.ID, "2024-06-10"))

	require.NoError(t, c.PutNote(ctx, habit.DailyNote{DateKey: "2024-06-10", Mood: 3, Journal: "ok"}))
	notes, err := c.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, 3, notes[0].Mood)

	require.NoError(t, c.Clear(ctx))
	habits, err := c.ListHabits(ctx)
	require.NoError(t, err)
	assert.Empty(t, habits)
}

func TestClient_Stats(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	today := time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)

	h, err := c.CreateHabit(ctx, habit.Habit{Name: "Run", CreatedAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.NoError(t, c.SetCompletion(ctx, h.ID, "2024-06-11", true))

	rep, err := c.Period(ctx, period.Week, 0, today)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-12", rep.Today)
	assert.Equal(t, 1, rep.Report.Totals.Completed)

	rank, err := c.Ranking(ctx, 2024, today)
	require.NoError(t, err)
	require.Len(t, rank.Ranking, 1)
	assert.Equal(t, h.ID, rank.Ranking[0].HabitID)

	sig, err := c.Signals(ctx, 2024, today)
	require.NoError(t, err)
	assert.Equal(t, 2024, sig.Year)

	story, err := c.Story(ctx, period.Week, 0, today)
	require.NoError(t, err)
	assert.NotEmpty(t, story.Story.Sections)

	sum, err := c.GetHabitSummary(ctx, h.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalDaysDone)
}

func TestClient_ErrorMessage(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	_, err := c.CreateHabit(ctx, habit.Habit{Name: "a", Goal: 500})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "bad goal: must be 0-100", se.Message)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := New(ts.URL, "hab_live_abc")
	_, err := c.ListHabits(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Bearer hab_live_abc", got)
}

func TestClient_AsMigrationDestination(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	guestDB, err := boltstore.Open(filepath.Join(t.TempDir(), "guest.db"))
	require.NoError(t, err)
	defer guestDB.Close()
	guest := storage.ForGuest(guestDB, "guest")

	h, err := guest.CreateHabit(ctx, habit.Habit{Name: "Walk"})
	require.NoError(t, err)
	require.NoError(t, guest.SetCompletion(ctx, h.ID, "2024-06-10", true))

	res, err := migrate.New(guest, c).Run(ctx)
	require.NoError(t, err)
	assert.False(t, res.Aborted)
	assert.Equal(t, 1, res.Habits)

	remote, err := c.ListHabits(ctx)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	done, err := c.LoadCompletions(ctx)
	require.NoError(t, err)
	assert.True(t, done.Done(remote[0].ID, "2024-06-10"))

	left, err := guest.ListHabits(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}
