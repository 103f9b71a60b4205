package habit

import "strings"

// CompletionMap maps habit id -> date key -> done. It is sparse: only true
// entries are kept, and a missing entry reads as not done.
type CompletionMap map[string]map[string]bool

func (m CompletionMap) Done(habitID, dateKey string) bool {
	days, ok := m[habitID]
	if !ok {
		return false
	}
	done, ok := days[dateKey]
	return ok && done
}

func (m CompletionMap) Set(habitID, dateKey string, done bool) {
	if !done {
		if days, ok := m[habitID]; ok {
			delete(days, dateKey)
			if len(days) == 0 {
				delete(m, habitID)
			}
		}
		return
	}
	days, ok := m[habitID]
	if !ok {
		days = make(map[string]bool)
		m[habitID] = days
	}
	days[dateKey] = true
}

// Keys returns the date keys marked done for a habit, in no particular order.
func (m CompletionMap) Keys(habitID string) []string {
	out := make([]string, 0, len(m[habitID]))
	for k, done := range m[habitID] {
		if done {
			out = append(out, k)
		}
	}
	return out
}

// CountPrefix counts done keys of a habit that start with prefix, e.g. "2024-03".
func (m CompletionMap) CountPrefix(habitID, prefix string) int {
	n := 0
	for k, done := range m[habitID] {
		if done && strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

func (m CompletionMap) DeleteHabit(habitID string) {
	delete(m, habitID)
}

func (m CompletionMap) Clone() CompletionMap {
	out := make(CompletionMap, len(m))
	for id, days := range m {
		cp := make(map[string]bool, len(days))
		for k, v := range days {
			if v {
				cp[k] = true
			}
		}
		if len(cp) > 0 {
			out[id] = cp
		}
	}
	return out
}
