package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/Surya5599/habittracker/pkg/versioninfo"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	http.Error(w, fmt.Sprintf(`{"error":%q}`, msg), code)
}

// requireUser resolves the request's user or answers 400.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		logger.Warn("Missing user ID", "path", r.URL.Path)
		jsonError(w, "user id is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	if err := writeJSON(w, http.StatusOK, versioninfo.Current()); err != nil {
		logger.Error("Failed to serialize version info response", "error", err)
	}
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habits, err := s.store.ListHabits(userID)
	if err != nil {
		logger.Error("Failed to list habits", "user_id", userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	logger.Debug("Listed habits successfully", "user_id", userID, "count", len(habits))
	UpdateActiveHabitsForUser(userID, len(habits))

	if err := writeJSON(w, http.StatusOK, HabitListResponse{Habits: habits}); err != nil {
		logger.Error("Failed to serialize habit list response", "user_id", userID, "error", err)
	}
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var h habit.Habit
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		logger.Warn("Invalid JSON in create habit request", "error", err)
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := habit.Validate(h); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := storage.ForUser(s.store, userID).CreateHabit(r.Context(), h)
	if err != nil {
		logger.Error("Failed to store habit", "user_id", userID, "habit_name", h.Name, "error", err)
		jsonError(w, "database write failed", http.StatusInternalServerError)
		return
	}
	logger.Info("Habit created", "user_id", userID, "habit_id", created.ID, "client_id", h.ID)
	s.refreshHabitGauge(userID)

	if err := writeJSON(w, http.StatusCreated, created); err != nil {
		logger.Error("Failed to serialize create habit response", "user_id", userID, "error", err)
	}
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")

	h, err := s.store.GetHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "habit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to get habit", "user_id", userID, "habit_id", habitID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize get habit response", "user_id", userID, "habit_id", habitID, "error", err)
	}
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")

	existing, err := s.store.GetHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "habit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to get habit", "user_id", userID, "habit_id", habitID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}

	var h habit.Habit
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	h.ID = habitID
	if h.CreatedAt.IsZero() {
		h.CreatedAt = existing.CreatedAt
	}
	if err := habit.Validate(h); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.PutHabit(userID, h); err != nil {
		logger.Error("Failed to update habit", "user_id", userID, "habit_id", habitID, "error", err)
		jsonError(w, "database write failed", http.StatusInternalServerError)
		return
	}
	logger.Info("Habit updated", "user_id", userID, "habit_id", habitID)
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize update habit response", "user_id", userID, "error", err)
	}
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	logger.Info("Deleting habit", "user_id", userID, "habit_id", habitID)

	err := s.store.DeleteHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "habit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to delete habit", "user_id", userID, "habit_id", habitID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	logger.Info("Habit deleted successfully", "user_id", userID, "habit_id", habitID)
	s.refreshHabitGauge(userID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getHabitSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	logger.Debug("Getting habit summary", "habit_id", habitID, "user_id", userID)

	h, err := s.store.GetHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "habit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to get habit", "user_id", userID, "habit_id", habitID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	data, err := s.loadData(userID, false)
	if err != nil {
		logger.Error("Failed to load completions", "user_id", userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}

	today, err := s.todayFrom(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := HabitSummaryResponse{
		HabitID:      habitID,
		HabitSummary: s.insights.Summary(data, h, today),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize habit summary response", "user_id", userID, "habit_id", habitID, "error", err)
	}
}

func (s *Server) listCompletions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	done, err := s.store.LoadCompletions(userID)
	if err != nil {
		logger.Error("Failed to load completions", "user_id", userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, CompletionsResponse{Completions: done}); err != nil {
		logger.Error("Failed to serialize completions response", "user_id", userID, "error", err)
	}
}

func (s *Server) setCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	dateKey := chi.URLParam(r, "date")
	if _, err := habit.ParseDateKey(dateKey); err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var body CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if _, err := s.store.GetHabit(userID, habitID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, "habit not found", http.StatusNotFound)
			return
		}
		logger.Error("Failed to get habit", "user_id", userID, "habit_id", habitID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}

	if err := s.store.SetCompletion(userID, habitID, dateKey, body.Done); err != nil {
		logger.Error("Failed to set completion", "user_id", userID, "habit_id", habitID, "date", dateKey, "error", err)
		jsonError(w, "database write failed", http.StatusInternalServerError)
		return
	}
	RecordCompletion(body.Done)
	logger.Debug("Completion set", "user_id", userID, "habit_id", habitID, "date", dateKey, "done", body.Done)

	resp := CompletionResponse{HabitID: habitID, Date: dateKey, Done: body.Done}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize completion response", "user_id", userID, "error", err)
	}
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	notes, err := s.store.ListNotes(userID)
	if err != nil {
		logger.Error("Failed to list notes", "user_id", userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes}); err != nil {
		logger.Error("Failed to serialize notes response", "user_id", userID, "error", err)
	}
}

func (s *Server) putNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	dateKey := chi.URLParam(r, "date")
	if _, err := habit.ParseDateKey(dateKey); err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var n habit.DailyNote
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	n.DateKey = dateKey
	if n.Mood < 0 || n.Mood > 5 {
		jsonError(w, "mood must be between 1 and 5, or 0 when unset", http.StatusBadRequest)
		return
	}

	if err := s.store.PutNote(userID, n); err != nil {
		logger.Error("Failed to store note", "user_id", userID, "date", dateKey, "error", err)
		jsonError(w, "database write failed", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, n); err != nil {
		logger.Error("Failed to serialize note response", "user_id", userID, "error", err)
	}
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	dateKey := chi.URLParam(r, "date")
	err := s.store.DeleteNote(userID, dateKey)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "note not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to delete note", "user_id", userID, "date", dateKey, "error", err)
		jsonError(w, "database write failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearData(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.store.ClearUser(userID); err != nil {
		logger.Error("Failed to clear user data", "user_id", userID, "error", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	logger.Info("Cleared user data", "user_id", userID)
	UpdateActiveHabitsForUser(userID, 0)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) refreshHabitGauge(userID string) {
	habits, err := s.store.ListHabits(userID)
	if err != nil {
		logger.Warn("Failed to update active habits metric", "user_id", userID, "error", err)
		return
	}
	UpdateActiveHabitsForUser(userID, len(habits))
}
