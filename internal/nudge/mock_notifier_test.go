package nudge

import "context"

type mockNotifier struct {
	called   bool
	reminder Reminder
	err      error
}

func (m *mockNotifier) SendNudge(_ context.Context, r Reminder) error {
	m.called = true
	m.reminder = r
	return m.err
}
