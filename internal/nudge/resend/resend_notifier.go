package resend

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/Surya5599/habittracker/internal/nudge"
	"github.com/resend/resend-go/v2"
)

const defaultFrom = "onboarding@resend.dev"

var emailTemplate = template.Must(template.New("email").Parse(`
<p>{{len .Habits}} habit streak{{if gt (len .Habits) 1}}s{{end}} will end in the next {{.HoursLeft}} hours unless you check in today ({{.Date}}):</p>
<ul>
{{range .Habits}}
  <li><strong>{{.Name}}</strong>: {{.Streak}} day streak</li>
{{end}}
</ul>
`))

type ResendNotifier struct {
	APIKey string
	From   string
	Email  string
}

// Render produces the HTML body of the reminder mail.
func Render(r nudge.Reminder) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func Subject(r nudge.Reminder) string {
	if len(r.Habits) == 1 {
		return fmt.Sprintf("Your %s streak is about to end", r.Habits[0].Name)
	}
	return fmt.Sprintf("%d habit streaks are about to end", len(r.Habits))
}

func (n *ResendNotifier) SendNudge(ctx context.Context, r nudge.Reminder) error {
	html, err := Render(r)
	if err != nil {
		return fmt.Errorf("render nudge: %w", err)
	}

	from := n.From
	if from == "" {
		from = defaultFrom
	}
	client := resend.NewClient(n.APIKey)
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{n.Email},
		Subject: Subject(r),
		Html:    html,
	}

	_, err = client.Emails.SendWithContext(ctx, params)
	return err
}

var _ nudge.Notifier = (*ResendNotifier)(nil)
