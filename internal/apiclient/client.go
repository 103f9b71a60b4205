package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Surya5599/habittracker/internal/insights"
	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/internal/server"
	"github.com/Surya5599/habittracker/internal/storage"
	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/Surya5599/habittracker/pkg/versioninfo"
)

// StatusError is returned for any non-2xx answer from the server.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Code, e.Message)
}

// Unwrap maps 404 onto storage.ErrNotFound so callers can treat the client
// like any other store.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return storage.ErrNotFound
	}
	return nil
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(base, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Op: op, Code: res.StatusCode, Message: errorMessage(res.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) Version(ctx context.Context) (versioninfo.VersionInfo, error) {
	var v versioninfo.VersionInfo
	err := c.do(ctx, "version", http.MethodGet, "/version", nil, &v)
	return v, err
}

func (c *Client) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	var resp server.HabitListResponse
	if err := c.do(ctx, "list habits", http.MethodGet, "/habits/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Habits, nil
}

func (c *Client) GetHabit(ctx context.Context, habitID string) (habit.Habit, error) {
	var h habit.Habit
	err := c.do(ctx, "get habit", http.MethodGet, "/habits/"+url.PathEscape(habitID), nil, &h)
	return h, err
}

func (c *Client) CreateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error) {
	var created habit.Habit
	err := c.do(ctx, "create habit", http.MethodPost, "/habits/", h, &created)
	return created, err
}

func (c *Client) UpdateHabit(ctx context.Context, h habit.Habit) error {
	return c.do(ctx, "update habit", http.MethodPut, "/habits/"+url.PathEscape(h.ID), h, nil)
}

func (c *Client) DeleteHabit(ctx context.Context, habitID string) error {
	return c.do(ctx, "delete habit", http.MethodDelete, "/habits/"+url.PathEscape(habitID), nil, nil)
}

func (c *Client) GetHabitSummary(ctx context.Context, habitID string, today time.Time) (*habit.HabitSummary, error) {
	var resp server.HabitSummaryResponse
	path := "/habits/" + url.PathEscape(habitID) + "/summary?today=" + habit.DateKey(today)
	if err := c.do(ctx, "summary "+habitID, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.HabitSummary, nil
}

func (c *Client) LoadCompletions(ctx context.Context) (habit.CompletionMap, error) {
	var resp server.CompletionsResponse
	if err := c.do(ctx, "load completions", http.MethodGet, "/completions/", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Completions == nil {
		resp.Completions = habit.CompletionMap{}
	}
	return resp.Completions, nil
}

func (c *Client) SetCompletion(ctx context.Context, habitID, dateKey string, done bool) error {
	path := "/completions/" + url.PathEscape(habitID) + "/" + url.PathEscape(dateKey)
	return c.do(ctx, "set completion", http.MethodPut, path, server.CompletionRequest{Done: done}, nil)
}

func (c *Client) ListNotes(ctx context.Context) ([]habit.DailyNote, error) {
	var resp server.NoteListResponse
	if err := c.do(ctx, "list notes", http.MethodGet, "/notes/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notes, nil
}

func (c *Client) PutNote(ctx context.Context, n habit.DailyNote) error {
	return c.do(ctx, "put note", http.MethodPut, "/notes/"+url.PathEscape(n.DateKey), n, nil)
}

func (c *Client) DeleteNote(ctx context.Context, dateKey string) error {
	return c.do(ctx, "delete note", http.MethodDelete, "/notes/"+url.PathEscape(dateKey), nil, nil)
}

// Clear drops every habit, completion and note of the account.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, "clear data", http.MethodDelete, "/data/", nil, nil)
}

func statsQuery(kind period.Kind, offset, year int, today time.Time) string {
	q := url.Values{}
	q.Set("kind", kind.String())
	q.Set("offset", strconv.Itoa(offset))
	if year != 0 {
		q.Set("year", strconv.Itoa(year))
	}
	q.Set("today", habit.DateKey(today))
	return q.Encode()
}

func (c *Client) Period(ctx context.Context, kind period.Kind, offset int, today time.Time) (insights.PeriodResponse, error) {
	var resp insights.PeriodResponse
	err := c.do(ctx, "period stats", http.MethodGet, "/stats/period?"+statsQuery(kind, offset, 0, today), nil, &resp)
	return resp, err
}

func (c *Client) Ranking(ctx context.Context, year int, today time.Time) (insights.RankingResponse, error) {
	var resp insights.RankingResponse
	err := c.do(ctx, "ranking", http.MethodGet, "/stats/ranking?"+statsQuery(period.Year, 0, year, today), nil, &resp)
	return resp, err
}

func (c *Client) Signals(ctx context.Context, year int, today time.Time) (insights.SignalsResponse, error) {
	var resp insights.SignalsResponse
	err := c.do(ctx, "signals", http.MethodGet, "/stats/signals?"+statsQuery(period.Year, 0, year, today), nil, &resp)
	return resp, err
}

func (c *Client) Story(ctx context.Context, kind period.Kind, offset int, today time.Time) (insights.StoryResponse, error) {
	var resp insights.StoryResponse
	err := c.do(ctx, "story", http.MethodGet, "/stats/story?"+statsQuery(kind, offset, 0, today), nil, &resp)
	return resp, err
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized
}
