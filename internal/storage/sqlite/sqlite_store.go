package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/Surya5599/habittracker/internal/storage/sqlite/migrations"
	"github.com/Surya5599/habittracker/pkg/habit"
	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it to the
// latest schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serialises writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrations.Up(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) PutHabit(userID string, h habit.Habit) error {
	var freq sql.NullString
	if h.Frequency != nil {
		b, err := json.Marshal(h.Frequency)
		if err != nil {
			return err
		}
		freq = sql.NullString{String: string(b), Valid: true}
	}
	var target sql.NullInt64
	if h.WeeklyTarget != nil {
		target = sql.NullInt64{Int64: int64(*h.WeeklyTarget), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO habits (user_id, id, name, color, goal, frequency, weekly_target, created_at, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			goal = excluded.goal,
			frequency = excluded.frequency,
			weekly_target = excluded.weekly_target,
			created_at = excluded.created_at,
			sort_order = excluded.sort_order`,
		userID, h.ID, h.Name, h.Color, h.Goal, freq, target,
		h.CreatedAt.UTC().Format(time.RFC3339Nano), h.SortOrder)
	if err != nil {
		return fmt.Errorf("put habit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (habit.Habit, error) {
	var (
		h         habit.Habit
		freq      sql.NullString
		target    sql.NullInt64
		createdAt string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Color, &h.Goal, &freq, &target, &createdAt, &h.SortOrder); err != nil {
		return habit.Habit{}, err
	}
	if freq.Valid {
		if err := json.Unmarshal([]byte(freq.String), &h.Frequency); err != nil {
			return habit.Habit{}, fmt.Errorf("decode frequency of %s: %w", h.ID, err)
		}
	}
	if target.Valid {
		n := int(target.Int64)
		h.WeeklyTarget = &n
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return habit.Habit{}, fmt.Errorf("decode created_at of %s: %w", h.ID, err)
	}
	h.CreatedAt = t
	return h, nil
}

const habitColumns = `id, name, color, goal, frequency, weekly_target, created_at, sort_order`

func (s *Store) GetHabit(userID, habitID string) (habit.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE user_id = ? AND id = ?`, userID, habitID)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Habit{}, storage.ErrNotFound
	}
	return h, err
}

func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	rows, err := s.db.Query(`SELECT `+habitColumns+` FROM habits WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	out := []habit.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// created_at is text, so ordering happens in Go with the shared rule.
	habit.SortByOrder(out)
	return out, nil
}

func (s *Store) DeleteHabit(userID, habitID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM habits WHERE user_id = ? AND id = ?`, userID, habitID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM completions WHERE user_id = ? AND habit_id = ?`, userID, habitID); err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	return tx.Commit()
}

func (s *Store) SetCompletion(userID, habitID, dateKey string, done bool) error {
	var err error
	if done {
		_, err = s.db.Exec(`INSERT OR IGNORE INTO completions (user_id, habit_id, date_key) VALUES (?, ?, ?)`,
			userID, habitID, dateKey)
	} else {
		_, err = s.db.Exec(`DELETE FROM completions WHERE user_id = ? AND habit_id = ? AND date_key = ?`,
			userID, habitID, dateKey)
	}
	if err != nil {
		return fmt.Errorf("set completion: %w", err)
	}
	return nil
}

func (s *Store) LoadCompletions(userID string) (habit.CompletionMap, error) {
	rows, err := s.db.Query(`SELECT habit_id, date_key FROM completions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	defer rows.Close()

	out := habit.CompletionMap{}
	for rows.Next() {
		var habitID, dateKey string
		if err := rows.Scan(&habitID, &dateKey); err != nil {
			return nil, err
		}
		out.Set(habitID, dateKey, true)
	}
	return out, rows.Err()
}

func (s *Store) PutNote(userID string, n habit.DailyNote) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO notes (user_id, date_key, body) VALUES (?, ?, ?)
		ON CONFLICT (user_id, date_key) DO UPDATE SET body = excluded.body`,
		userID, n.DateKey, string(body))
	if err != nil {
		return fmt.Errorf("put note: %w", err)
	}
	return nil
}

func (s *Store) ListNotes(userID string) ([]habit.DailyNote, error) {
	rows, err := s.db.Query(`SELECT body FROM notes WHERE user_id = ? ORDER BY date_key`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	out := []habit.DailyNote{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var n habit.DailyNote
		if err := json.Unmarshal([]byte(body), &n); err != nil {
			return nil, fmt.Errorf("decode note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) DeleteNote(userID, dateKey string) error {
	res, err := s.db.Exec(`DELETE FROM notes WHERE user_id = ? AND date_key = ?`, userID, dateKey)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ClearUser(userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"habits", "completions", "notes"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO api_keys (key_hash, user_id, created_at) VALUES (?, ?, ?)`,
		keyHash, userID, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	err := s.db.QueryRow(`SELECT user_id FROM api_keys WHERE key_hash = ?`, keyHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key_hash FROM api_keys WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	_, err := s.db.Exec(`DELETE FROM api_keys WHERE key_hash = ?`, keyHash)
	return err
}

func (s *Store) PutRefreshToken(userID string, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO refresh_tokens (user_id, token) VALUES (?, ?)`, userID, string(b))
	return err
}

func (s *Store) GetRefreshToken(userID string) (*oauth2.Token, bool, error) {
	var body string
	err := s.db.QueryRow(`SELECT token FROM refresh_tokens WHERE user_id = ?`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal([]byte(body), tok); err != nil {
		return nil, false, err
	}
	return tok, true, nil
}

func (s *Store) DeleteRefreshToken(userID string) error {
	_, err := s.db.Exec(`DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	return err
}

var _ storage.Store = (*Store)(nil)
