package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crm/backend/internal/domain/task"
	"github.com/crm/backend/internal/infrastructure/email"
)

func TestEmailExecutor_Execute(t *testing.T) {
	noProgress := func(int) {}

	newTask := func(t *testing.T, payload EmailPayload) *task.Task {
		t.Helper()
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		tk, err := task.NewTask(uuid.New(), nil, task.TaskTypeEmail, string(data), 0)
		require.NoError(t, err)
		return tk
	}

	t.Run("sends deal won notification", func(t *testing.T) {
		sender := email.NewRecordingSender()
		executor := NewEmailExecutor(sender)

		tk := newTask(t, EmailPayload{
			Kind:      EmailKindDealWon,
			To:        "rep@example.com",
			Name:      "Grace",
			DealTitle: "Renewal Q4",
			Amount:    "5000",
			Currency:  "USD",
		})

		result, err := executor.Execute(context.Background(), tk, noProgress)

		require.NoError(t, err)
		messages := sender.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, "rep@example.com", messages[0].To)
		assert.Contains(t, messages[0].Subject, "Renewal Q4")
		assert.Contains(t, messages[0].TextBody, "5000 USD")

		var parsed EmailResult
		require.NoError(t, json.Unmarshal([]byte(result), &parsed))
		assert.Equal(t, "rep@example.com", parsed.SentTo)
	})

	t.Run("sends welcome mail", func(t *testing.T) {
		sender := email.NewRecordingSender()
		executor := NewEmailExecutor(sender)

		tk := newTask(t, EmailPayload{
			Kind: EmailKindUserWelcome,
			To:   "new@example.com",
			Name: "Ada",
		})

		_, err := executor.Execute(context.Background(), tk, noProgress)

		require.NoError(t, err)
		messages := sender.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, "Welcome to the CRM", messages[0].Subject)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		sender := email.NewRecordingSender()
		executor := NewEmailExecutor(sender)

		tk := newTask(t, EmailPayload{Kind: "carrier_pigeon", To: "x@example.com"})

		_, err := executor.Execute(context.Background(), tk, noProgress)

		assert.Error(t, err)
		assert.Empty(t, sender.Messages())
	})

	t.Run("rejects missing recipient", func(t *testing.T) {
		sender := email.NewRecordingSender()
		executor := NewEmailExecutor(sender)

		tk := newTask(t, EmailPayload{Kind: EmailKindUserWelcome})

		_, err := executor.Execute(context.Background(), tk, noProgress)

		assert.Error(t, err)
	})
}
