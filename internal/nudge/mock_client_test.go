package nudge

import (
	"context"

	"github.com/Surya5599/habittracker/pkg/habit"
)

type mockClient struct {
	habits []habit.Habit
	done   habit.CompletionMap
	err    error
}

func (f *mockClient) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	return f.habits, f.err
}

func (f *mockClient) LoadCompletions(ctx context.Context) (habit.CompletionMap, error) {
	return f.done, f.err
}
