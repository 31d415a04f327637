package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryStatusMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   string
		status int
	}{
		{NewValidation("bad input"), CodeValidation, http.StatusBadRequest},
		{NewOverFulfillment("line-1", "100", "90", "20"), CodeOverFulfillment, http.StatusBadRequest},
		{NewDirectionMismatch("PURCHASE", "shipment"), CodeDirectionMismatch, http.StatusBadRequest},
		{NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("system record"), CodeForbidden, http.StatusForbidden},
		{NewNotFound("invoice", "abc"), CodeNotFound, http.StatusNotFound},
		{NewConflict("has fulfillment events"), CodeConflict, http.StatusConflict},
		{NewDuplicate("movement type", "code", "PURCHASE"), CodeDuplicate, http.StatusConflict},
		{NewConcurrentModification("invoice", "abc"), CodeConcurrentModification, http.StatusConflict},
		{NewConfiguration("system movement type PURCHASE is missing"), CodeConfiguration, http.StatusInternalServerError},
		{NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
			assert.Equal(t, tc.status, GetHTTPStatus(tc.err))
		})
	}
}

func TestOverFulfillmentDetails(t *testing.T) {
	err := NewOverFulfillment("line-42", "1000", "999.999", "0.002")
	assert.Equal(t, "line-42", err.Details["line_item_id"])
	assert.Equal(t, "1000", err.Details["invoiced"])
	assert.Equal(t, "999.999", err.Details["already"])
	assert.Equal(t, "0.002", err.Details["requested"])
}

func TestGetHTTPStatusWrapped(t *testing.T) {
	wrapped := fmt.Errorf("create event: %w", NewNotFound("invoice", "abc"))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))

	// Unknown errors never leak as anything but 500.
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(fmt.Errorf("outer: %w", NewValidation("bad")))
	require.True(t, ok)
	assert.Equal(t, CodeValidation, appErr.Code)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)

	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("invoice", "abc")))
	assert.False(t, IsNotFound(NewValidation("bad")))

	assert.True(t, IsConfiguration(NewConfiguration("missing seed")))
	assert.False(t, IsConfiguration(NewInternal(errors.New("boom"))))

	assert.True(t, IsConcurrentModification(NewConcurrentModification("invoice", "abc")))
	assert.False(t, IsConcurrentModification(NewConflict("busy")))
}

func TestUnwrapAndCause(t *testing.T) {
	cause := errors.New("pq: deadlock detected")
	err := NewInternal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by")

	withCause := NewValidation("bad").WithCause(cause)
	assert.ErrorIs(t, withCause, cause)
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("bad").WithDetail("field", "quantity").WithDetail("reason", "non-positive")
	assert.Equal(t, "quantity", err.Details["field"])
	assert.Equal(t, "non-positive", err.Details["reason"])
}
