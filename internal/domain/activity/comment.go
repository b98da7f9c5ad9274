package activity

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Comment is a note on an activity. Comments stay writable after the
// activity itself is completed or cancelled.
type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null"`
	Body       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (Comment) TableName() string {
	return "activity_comments"
}

// NewComment creates a comment on an activity
func NewComment(a *Activity, authorID uuid.UUID, body string) (*Comment, error) {
	if a.IsDeleted() {
		return nil, shared.NewDomainError("ACTIVITY_DELETED", "Cannot comment on a deleted activity")
	}
	if body == "" {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Comment body cannot be empty")
	}
	if len(body) > 4000 {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Comment body cannot exceed 4000 characters")
	}

	now := time.Now()
	return &Comment{
		ID:         uuid.New(),
		TenantID:   a.TenantID,
		ActivityID: a.ID,
		AuthorID:   authorID,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
