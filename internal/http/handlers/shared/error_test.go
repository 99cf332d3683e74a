package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHandler(t *testing.T, handler gin.HandlerFunc) response.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	require.Equal(t, http.StatusOK, w.Code)
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondServiceErrorMapsWrappedSentinel(t *testing.T) {
	body := runHandler(t, func(c *gin.Context) {
		RespondServiceError(c, fmt.Errorf("checkout: %w", service.ErrInsufficientStock), "下单失败")
	})
	assert.Equal(t, response.CodeConflict, body.StatusCode)
	assert.Equal(t, service.ErrInsufficientStock.Error(), body.Msg)
}

func TestRespondServiceErrorFallback(t *testing.T) {
	body := runHandler(t, func(c *gin.Context) {
		RespondServiceError(c, fmt.Errorf("db down"), "下单失败")
	})
	assert.Equal(t, response.CodeInternal, body.StatusCode)
	assert.Equal(t, "下单失败", body.Msg)
}

func TestActorFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ContextKeyUserID, uint(7))
	c.Set(ContextKeyUserRole, "manager")
	c.Set(ContextKeySuperuser, false)

	actor, ok := ActorFromContext(c)
	require.True(t, ok)
	assert.Equal(t, uint(7), actor.ID)
	assert.Equal(t, "manager", actor.Role)
	assert.Equal(t, uint(7), OptionalUserID(c))
}

func TestGetUserIDMissing(t *testing.T) {
	body := runHandler(t, func(c *gin.Context) {
		_, ok := GetUserID(c)
		assert.False(t, ok)
	})
	assert.Equal(t, response.CodeUnauthorized, body.StatusCode)
}

func TestNormalizePagination(t *testing.T) {
	page, size := NormalizePagination(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, size)
	page, size = NormalizePagination(3, 0)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, size)
}
