package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorMessage(t *testing.T) {
	err := InvalidArgument("start is required")
	assert.Equal(t, "[INVALID_ARGUMENT] start is required", err.Error())

	wrapped := ReportUnavailable(fmt.Errorf("no run"))
	assert.Equal(t, "[REPORT_UNAVAILABLE] analysis report not available: no run", wrapped.Error())

	canceled := ContextCanceled(context.Canceled)
	assert.ErrorIs(t, canceled, context.Canceled)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *APIError
		want int
	}{
		{InvalidArgument("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{RateLimitExceeded("x"), http.StatusTooManyRequests},
		{ReportUnavailable(nil), http.StatusServiceUnavailable},
		{ContextCanceled(nil), 499},
		{Wrap(fmt.Errorf("boom"), ErrCodeInternal, "failed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestCodeLookup(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("unknown concept").WithContext("concept", "x"))
	assert.True(t, IsCode(err, ErrCodeNotFound))
	assert.False(t, IsCode(err, ErrCodeInvalidArgument))
	assert.Equal(t, ErrCodeNotFound, GetCodeFromError(err, ErrCodeInternal))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(fmt.Errorf("plain"), ErrCodeInternal))
}
