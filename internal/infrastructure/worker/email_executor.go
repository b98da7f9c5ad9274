package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crm/backend/internal/domain/task"
	"github.com/crm/backend/internal/infrastructure/email"
)

// Email notification kinds
const (
	EmailKindDealWon          = "deal_won"
	EmailKindActivityReminder = "activity_reminder"
	EmailKindUserWelcome      = "user_welcome"
)

// EmailPayload is the payload of an email task
type EmailPayload struct {
	Kind            string `json:"kind"`
	To              string `json:"to"`
	Name            string `json:"name,omitempty"`
	DealTitle       string `json:"deal_title,omitempty"`
	Amount          string `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
	ActivitySubject string `json:"activity_subject,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
}

// EmailResult is the result blob of an email task
type EmailResult struct {
	SentTo  string `json:"sent_to"`
	Subject string `json:"subject"`
}

// EmailExecutor sends notification mail
type EmailExecutor struct {
	sender email.Sender
}

// NewEmailExecutor creates an EmailExecutor
func NewEmailExecutor(sender email.Sender) *EmailExecutor {
	return &EmailExecutor{sender: sender}
}

// Type returns the task type this executor handles
func (e *EmailExecutor) Type() task.TaskType {
	return task.TaskTypeEmail
}

// Execute renders and sends the notification
func (e *EmailExecutor) Execute(ctx context.Context, t *task.Task, progress ProgressFunc) (string, error) {
	var payload EmailPayload
	if err := json.Unmarshal([]byte(t.Payload), &payload); err != nil {
		return "", fmt.Errorf("invalid email payload: %w", err)
	}
	if payload.To == "" {
		return "", fmt.Errorf("email payload has no recipient")
	}

	msg, err := renderEmail(payload)
	if err != nil {
		return "", err
	}
	progress(50)

	if err := e.sender.Send(ctx, msg); err != nil {
		return "", err
	}

	result, err := json.Marshal(EmailResult{SentTo: payload.To, Subject: msg.Subject})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email result: %w", err)
	}
	return string(result), nil
}

func renderEmail(p EmailPayload) (email.Message, error) {
	switch p.Kind {
	case EmailKindDealWon:
		return email.Message{
			To:      p.To,
			Subject: fmt.Sprintf("Deal won: %s", p.DealTitle),
			TextBody: fmt.Sprintf(
				"Hi %s,\n\nThe deal %q closed as won for %s %s. Congratulations!\n",
				p.Name, p.DealTitle, p.Amount, p.Currency),
		}, nil

	case EmailKindActivityReminder:
		return email.Message{
			To:      p.To,
			Subject: fmt.Sprintf("Reminder: %s", p.ActivitySubject),
			TextBody: fmt.Sprintf(
				"Hi %s,\n\nThe activity %q is due on %s.\n",
				p.Name, p.ActivitySubject, p.DueDate),
		}, nil

	case EmailKindUserWelcome:
		return email.Message{
			To:      p.To,
			Subject: "Welcome to the CRM",
			TextBody: fmt.Sprintf(
				"Hi %s,\n\nYour account has been created. Sign in with your username and the password you received.\n",
				p.Name),
		}, nil

	default:
		return email.Message{}, fmt.Errorf("unknown email kind %q", p.Kind)
	}
}

// Ensure EmailExecutor implements Executor
var _ Executor = (*EmailExecutor)(nil)
