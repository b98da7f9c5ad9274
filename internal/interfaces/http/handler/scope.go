package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crm/backend/internal/infrastructure/persistence/datascope"
	"github.com/crm/backend/internal/interfaces/http/middleware"
)

// callerScope builds the row-level data scope of the authenticated caller
func callerScope(c *gin.Context) *datascope.Filter {
	role, _ := middleware.GetAuthRole(c)
	actorID, _ := getActorID(c)
	return datascope.NewFilter(role, actorID)
}

// scopeAllows reports whether the caller may touch a row owned by ownerID
func scopeAllows(scope *datascope.Filter, ownerID *uuid.UUID) bool {
	if scope.CanAccessAll() {
		return true
	}
	return ownerID != nil && scope.IsOwner(*ownerID)
}

// restrictListToOwner narrows a list query to the caller's own rows when
// their role only sees what it owns. The owner filter is forced, not merged,
// so a self-scoped caller cannot list another user's rows by passing
// owner_id themselves.
func restrictListToOwner(scope *datascope.Filter, ownerID *string) {
	if !scope.CanAccessAll() {
		*ownerID = scope.UserID().String()
	}
}
