package nudge

import (
	"context"

	"github.com/Surya5599/habittracker/pkg/habit"
)

// Querier is satisfied by both the API client and a local user store.
type Querier interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
	LoadCompletions(ctx context.Context) (habit.CompletionMap, error)
}
