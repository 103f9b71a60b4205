package bolt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/Surya5599/habittracker/pkg/habit"
	"go.etcd.io/bbolt"
	"golang.org/x/oauth2"
)

const (
	rootBucket          = "users"
	apiKeysBucket       = "api_keys"
	refreshTokensBucket = "refresh_tokens"

	habitsBucket      = "habits"
	completionsBucket = "completions"
	notesBucket       = "notes"

	defaultUserID = "default"
)

var doneValue = []byte("1")

type Store struct {
	db *bbolt.DB
}

// Open creates or opens the database file. Another process holding the file
// makes it fail after a second instead of blocking.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &Store{db: db}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{rootBucket, apiKeysBucket, refreshTokensBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func userKey(userID string) []byte {
	if userID == "" {
		userID = defaultUserID
	}
	return []byte(userID)
}

// userBucket returns the named sub-bucket of a user, creating it in write
// transactions. In read transactions a missing bucket yields nil.
func userBucket(tx *bbolt.Tx, userID, name string) (*bbolt.Bucket, error) {
	users := tx.Bucket([]byte(rootBucket))
	if !tx.Writable() {
		ub := users.Bucket(userKey(userID))
		if ub == nil {
			return nil, nil
		}
		return ub.Bucket([]byte(name)), nil
	}
	ub, err := users.CreateBucketIfNotExists(userKey(userID))
	if err != nil {
		return nil, err
	}
	return ub.CreateBucketIfNotExists([]byte(name))
}

func completionKey(habitID, dateKey string) []byte {
	return fmt.Appendf(nil, "%s/%s", habitID, dateKey)
}

func (s *Store) PutHabit(userID string, h habit.Habit) error {
	val, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(h.ID), val)
	})
}

func (s *Store) GetHabit(userID, habitID string) (habit.Habit, error) {
	var h habit.Habit
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		if bucket == nil {
			return storage.ErrNotFound
		}
		v := bucket.Get([]byte(habitID))
		if v == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(v, &h)
	})
	return h, err
}

func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	out := []habit.Habit{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, habitsBucket)
		if err != nil || bucket == nil {
			return err
		}
		return bucket.ForEach(func(_, v []byte) error {
			var h habit.Habit
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			out = append(out, h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	habit.SortByOrder(out)
	return out, nil
}

func (s *Store) DeleteHabit(userID, habitID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		habits, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		if habits.Get([]byte(habitID)) == nil {
			return storage.ErrNotFound
		}
		if err := habits.Delete([]byte(habitID)); err != nil {
			return err
		}

		completions, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		c := completions.Cursor()
		prefix := []byte(habitID + "/")
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SetCompletion(userID, habitID, dateKey string, done bool) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		key := completionKey(habitID, dateKey)
		if !done {
			return bucket.Delete(key)
		}
		return bucket.Put(key, doneValue)
	})
}

func (s *Store) LoadCompletions(userID string) (habit.CompletionMap, error) {
	out := habit.CompletionMap{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, completionsBucket)
		if err != nil || bucket == nil {
			return err
		}
		return bucket.ForEach(func(k, _ []byte) error {
			habitID, dateKey, ok := bytes.Cut(k, []byte("/"))
			if !ok {
				return nil
			}
			out.Set(string(habitID), string(dateKey), true)
			return nil
		})
	})
	return out, err
}

func (s *Store) PutNote(userID string, n habit.DailyNote) error {
	val, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, notesBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(n.DateKey), val)
	})
}

// ListNotes returns notes in date order.
func (s *Store) ListNotes(userID string) ([]habit.DailyNote, error) {
	out := []habit.DailyNote{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, notesBucket)
		if err != nil || bucket == nil {
			return err
		}
		return bucket.ForEach(func(_, v []byte) error {
			var n habit.DailyNote
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			out = append(out, n)
			return nil
		})
	})
	return out, err
}

func (s *Store) DeleteNote(userID, dateKey string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, notesBucket)
		if err != nil {
			return err
		}
		if bucket.Get([]byte(dateKey)) == nil {
			return storage.ErrNotFound
		}
		return bucket.Delete([]byte(dateKey))
	})
}

func (s *Store) ClearUser(userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket([]byte(rootBucket))
		if users.Bucket(userKey(userID)) == nil {
			return nil
		}
		return users.DeleteBucket(userKey(userID))
	})
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Put([]byte(keyHash), []byte(userID))
	})
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(apiKeysBucket)).Get([]byte(keyHash)); v != nil {
			userID = string(v)
		}
		return nil
	})
	return userID, userID != "", err
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	out := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).ForEach(func(k, v []byte) error {
			if string(v) == userID {
				out = append(out, string(k))
			}
			return nil
		})
	})
	return out, err
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Delete([]byte(keyHash))
	})
}

func (s *Store) PutRefreshToken(userID string, tok *oauth2.Token) error {
	val, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(refreshTokensBucket)).Put(userKey(userID), val)
	})
}

func (s *Store) GetRefreshToken(userID string) (*oauth2.Token, bool, error) {
	var tok *oauth2.Token
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(refreshTokensBucket)).Get(userKey(userID))
		if v == nil {
			return nil
		}
		tok = &oauth2.Token{}
		return json.Unmarshal(v, tok)
	})
	if err != nil {
		return nil, false, err
	}
	return tok, tok != nil, nil
}

func (s *Store) DeleteRefreshToken(userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(refreshTokensBucket)).Delete(userKey(userID))
	})
}

var _ storage.Store = (*Store)(nil)
