package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Surya5599/habittracker/internal/insights"
	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/pkg/habit"
)

// loadData reads a user's habits and completions, and notes when withNotes
// is set.
func (s *Server) loadData(userID string, withNotes bool) (insights.Data, error) {
	var (
		d   insights.Data
		err error
	)
	if d.Habits, err = s.store.ListHabits(userID); err != nil {
		return d, fmt.Errorf("list habits: %w", err)
	}
	if d.Done, err = s.store.LoadCompletions(userID); err != nil {
		return d, fmt.Errorf("load completions: %w", err)
	}
	if withNotes {
		if d.Notes, err = s.store.ListNotes(userID); err != nil {
			return d, fmt.Errorf("list notes: %w", err)
		}
	}
	return d, nil
}

// todayFrom honours ?today=YYYY-MM-DD so clients in other timezones get
// their own calendar day; otherwise the server's configured day is used.
func (s *Server) todayFrom(r *http.Request) (time.Time, error) {
	key := r.URL.Query().Get("today")
	if key == "" {
		return s.today(), nil
	}
	loc, err := s.cfg.Location()
	if err != nil {
		loc = time.Local
	}
	t, err := habit.ParseDateKeyIn(key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("today must be YYYY-MM-DD")
	}
	return t, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

type statsQuery struct {
	userID string
	today  time.Time
	kind   period.Kind
	offset int
	year   int
}

func (s *Server) parseStatsQuery(w http.ResponseWriter, r *http.Request) (statsQuery, bool) {
	var q statsQuery
	var ok bool
	if q.userID, ok = s.requireUser(w, r); !ok {
		return q, false
	}

	var err error
	if q.today, err = s.todayFrom(r); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return q, false
	}
	if q.kind, err = period.ParseKind(r.URL.Query().Get("kind")); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return q, false
	}
	if q.offset, err = intParam(r, "offset"); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return q, false
	}
	if q.year, err = intParam(r, "year"); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return q, false
	}
	if q.year == 0 {
		q.year = q.today.Year()
	}
	return q, true
}

func (s *Server) getPeriodStats(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseStatsQuery(w, r)
	if !ok {
		return
	}
	data, err := s.loadData(q.userID, false)
	if err != nil {
		logger.Error("Failed to load stats data", "user_id", q.userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	resp := s.insights.Period(data, q.kind, q.offset, q.today)
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize period stats", "user_id", q.userID, "error", err)
	}
}

func (s *Server) getRanking(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseStatsQuery(w, r)
	if !ok {
		return
	}
	data, err := s.loadData(q.userID, false)
	if err != nil {
		logger.Error("Failed to load stats data", "user_id", q.userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, s.insights.Ranking(data, q.year, q.today)); err != nil {
		logger.Error("Failed to serialize ranking", "user_id", q.userID, "error", err)
	}
}

func (s *Server) getSignals(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseStatsQuery(w, r)
	if !ok {
		return
	}
	data, err := s.loadData(q.userID, false)
	if err != nil {
		logger.Error("Failed to load stats data", "user_id", q.userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, s.insights.Signals(data, q.year, q.today)); err != nil {
		logger.Error("Failed to serialize signals", "user_id", q.userID, "error", err)
	}
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseStatsQuery(w, r)
	if !ok {
		return
	}
	data, err := s.loadData(q.userID, true)
	if err != nil {
		logger.Error("Failed to load stats data", "user_id", q.userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, s.insights.Story(data, q.kind, q.offset, q.today)); err != nil {
		logger.Error("Failed to serialize story", "user_id", q.userID, "error", err)
	}
}
