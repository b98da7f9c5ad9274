package audit

import (
	"context"
	"encoding/json"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/internal/domain/audit"
	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/deal"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// eventActions maps domain event types to audit actions. Events not
// listed here are not audited.
var eventActions = map[string]audit.Action{
	contact.EventTypeContactCreated:       audit.ActionCreate,
	contact.EventTypeContactUpdated:       audit.ActionUpdate,
	contact.EventTypeContactStatusChanged: audit.ActionStatusChange,
	contact.EventTypeContactDeleted:       audit.ActionDelete,
	contact.EventTypeContactRestored:      audit.ActionStatusChange,

	deal.EventTypeDealCreated:      audit.ActionCreate,
	deal.EventTypeDealUpdated:      audit.ActionUpdate,
	deal.EventTypeDealStageChanged: audit.ActionStatusChange,
	deal.EventTypeDealClosed:       audit.ActionStatusChange,
	deal.EventTypeDealReopened:     audit.ActionStatusChange,
	deal.EventTypeDealDeleted:      audit.ActionDelete,

	activity.EventTypeActivityCreated:    audit.ActionCreate,
	activity.EventTypeActivityCompleted:  audit.ActionStatusChange,
	activity.EventTypeActivityCancelled:  audit.ActionStatusChange,
	activity.EventTypeActivityReassigned: audit.ActionUpdate,

	identity.EventTypeUserCreated:         audit.ActionCreate,
	identity.EventTypeUserStatusChanged:   audit.ActionStatusChange,
	identity.EventTypeUserRoleChanged:     audit.ActionStatusChange,
	identity.EventTypeUserPasswordChanged: audit.ActionUpdate,
	identity.EventTypeUserLoggedIn:        audit.ActionLogin,
	identity.EventTypeUserLoginFailed:     audit.ActionLoginFailed,

	identity.EventTypeAPIKeyCreated: audit.ActionCreate,
	identity.EventTypeAPIKeyRotated: audit.ActionStatusChange,
	identity.EventTypeAPIKeyRevoked: audit.ActionStatusChange,
}

// Recorder subscribes to the event bus and turns domain events into
// audit log entries.
type Recorder struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(repo audit.Repository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger}
}

// EventTypes returns the event types the recorder audits
func (r *Recorder) EventTypes() []string {
	types := make([]string, 0, len(eventActions))
	for t := range eventActions {
		types = append(types, t)
	}
	return types
}

// Handle writes one audit entry per domain event. Events with no
// mapped action are ignored.
func (r *Recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	action, ok := eventActions[event.EventType()]
	if !ok {
		return nil
	}

	detail, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("failed to serialize event for audit",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
		detail = []byte("{}")
	}

	resourceID := event.AggregateID()
	entry, err := audit.NewEntry(
		event.TenantID(),
		actorOf(event),
		action,
		event.AggregateType(),
		&resourceID,
		string(detail),
		requestIPOf(event),
	)
	if err != nil {
		return err
	}

	if err := r.repo.Save(ctx, entry); err != nil {
		r.logger.Error("failed to persist audit entry",
			zap.String("event_type", event.EventType()),
			zap.String("tenant_id", event.TenantID().String()),
			zap.Error(err))
		return err
	}

	return nil
}

// actorOf extracts the acting user. Mutation events are stamped with the
// authenticated caller; authentication events act on the user aggregate
// itself.
func actorOf(event shared.DomainEvent) *uuid.UUID {
	if actor := event.Actor(); actor != nil {
		return actor
	}
	switch e := event.(type) {
	case *identity.UserLoggedInEvent:
		return &e.UserID
	case *identity.UserLoginFailedEvent:
		return &e.UserID
	}
	return nil
}

func requestIPOf(event shared.DomainEvent) string {
	switch e := event.(type) {
	case *identity.UserLoggedInEvent:
		return e.IP
	case *identity.UserLoginFailedEvent:
		return e.IP
	}
	return ""
}

// Verify interface compliance
var _ shared.EventHandler = (*Recorder)(nil)
