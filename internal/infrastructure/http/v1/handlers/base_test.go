package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/core/apperror"
	appctx "farmbooks/internal/core/context"
	"farmbooks/internal/core/id"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestParseIDParam(t *testing.T) {
	h := NewBaseHandler()

	c, _ := testContext(t)
	want := id.New()
	c.Params = gin.Params{{Key: "id", Value: want.String()}}

	got, ok := h.ParseIDParam(c, "id")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestParseIDParamInvalid(t *testing.T) {
	h := NewBaseHandler()

	c, _ := testContext(t)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	got, ok := h.ParseIDParam(c, "id")
	assert.False(t, ok)
	assert.True(t, id.IsNil(got))
	assert.True(t, c.IsAborted())

	require.Len(t, c.Errors, 1)
	appErr, found := apperror.AsAppError(c.Errors[0].Err)
	require.True(t, found)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestTenantID(t *testing.T) {
	h := NewBaseHandler()

	c, _ := testContext(t)
	want := id.New()
	c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), &appctx.UserContext{
		TenantID: want.String(),
	}))

	got, ok := h.TenantID(c)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTenantIDMissing(t *testing.T) {
	h := NewBaseHandler()

	c, _ := testContext(t)

	got, ok := h.TenantID(c)
	assert.False(t, ok)
	assert.True(t, id.IsNil(got))

	require.Len(t, c.Errors, 1)
	appErr, found := apperror.AsAppError(c.Errors[0].Err)
	require.True(t, found)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}
