package habit

import (
	"testing"
	"time"
)

func TestFormatDateKey_ZeroPadded(t *testing.T) {
	got := FormatDateKey(2024, time.March, 7)
	if got != "2024-03-07" {
		t.Fatalf("got %q want 2024-03-07", got)
	}
}

func TestDateKey_RoundTrip(t *testing.T) {
	for _, key := range []string{"2024-01-01", "2024-02-29", "1999-12-31"} {
		d, err := ParseDateKey(key)
		if err != nil {
			t.Fatalf("ParseDateKey(%q): %v", key, err)
		}
		if got := DateKey(d); got != key {
			t.Fatalf("round trip got %q want %q", got, key)
		}
	}
}

func TestParseDateKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "2024-1-01", "2024-13-01", "2024/01/01"} {
		if _, err := ParseDateKey(key); err == nil {
			t.Errorf("expected error for %q", key)
		}
	}
}

func TestCompletionMap_MissingIsFalse(t *testing.T) {
	m := CompletionMap{}
	if m.Done("h1", "2024-01-01") {
		t.Fatal("missing entry should read as not done")
	}
	var nilMap CompletionMap
	if nilMap.Done("h1", "2024-01-01") {
		t.Fatal("nil map should read as not done")
	}
}

func TestCompletionMap_SetIdempotent(t *testing.T) {
	m := CompletionMap{}
	m.Set("h1", "2024-01-01", true)
	m.Set("h1", "2024-01-01", true)
	if !m.Done("h1", "2024-01-01") {
		t.Fatal("expected done after two sets")
	}
	m.Set("h1", "2024-01-01", false)
	if m.Done("h1", "2024-01-01") {
		t.Fatal("expected not done after unset")
	}
	if _, ok := m["h1"]; ok {
		t.Fatal("empty habit entry should be pruned")
	}
}

func TestCompletionMap_CloneIsDeep(t *testing.T) {
	m := CompletionMap{}
	m.Set("h1", "2024-01-01", true)
	cp := m.Clone()
	m.Set("h1", "2024-01-02", true)
	if cp.Done("h1", "2024-01-02") {
		t.Fatal("clone should not see later writes")
	}
	if n := m.CountPrefix("h1", "2024-01"); n != 2 {
		t.Fatalf("CountPrefix got %d want 2", n)
	}
}

func TestSortByOrder(t *testing.T) {
	now := time.Now()
	hs := []Habit{
		{ID: "c", SortOrder: 2, CreatedAt: now},
		{ID: "b", SortOrder: 1, CreatedAt: now.Add(time.Hour)},
		{ID: "a", SortOrder: 1, CreatedAt: now},
	}
	SortByOrder(hs)
	if hs[0].ID != "a" || hs[1].ID != "b" || hs[2].ID != "c" {
		t.Fatalf("unexpected order: %v %v %v", hs[0].ID, hs[1].ID, hs[2].ID)
	}
}

func TestDisplayName(t *testing.T) {
	if got := (Habit{}).DisplayName(); got != "Untitled" {
		t.Fatalf("got %q want Untitled", got)
	}
	if got := (Habit{Name: "Read"}).DisplayName(); got != "Read" {
		t.Fatalf("got %q want Read", got)
	}
}
