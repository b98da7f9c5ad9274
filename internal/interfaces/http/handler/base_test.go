package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/crm/backend/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performHandlerRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/test", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestBaseHandler_Success(t *testing.T) {
	var base BaseHandler
	w := performHandlerRequest(func(c *gin.Context) {
		base.Success(c, gin.H{"value": 42})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"value":42`)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	var base BaseHandler
	w := performHandlerRequest(func(c *gin.Context) {
		base.SuccessWithMeta(c, []string{"a", "b"}, 12, 2, 5)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":12`)
	assert.Contains(t, w.Body.String(), `"page":2`)
}

func TestBaseHandler_HandleError_DomainError(t *testing.T) {
	var base BaseHandler

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        shared.NewDomainError("NOT_FOUND", "Contact not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "ERR_NOT_FOUND",
		},
		{
			name:       "validation",
			err:        shared.NewDomainError("INVALID_STATUS", "Unknown status"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_VALIDATION",
		},
		{
			name:       "wrapped domain error",
			err:        shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "ERR_NOT_FOUND",
		},
		{
			name:       "unknown error stays opaque",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "ERR_INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performHandlerRequest(func(c *gin.Context) {
				base.HandleError(c, tt.err)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestBaseHandler_BindJSON_Invalid(t *testing.T) {
	var base BaseHandler
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if !base.BindJSON(c, &req) {
			return
		}
		base.Success(c, req)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
