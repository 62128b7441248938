package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/logger"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "app error",
			err:    apperrors.NewConflictError("Ticket with title 'x' already exists."),
			status: http.StatusConflict,
			body:   `{"success":false,"error":"Conflict","message":"Ticket with title 'x' already exists."}`,
		},
		{
			name:   "echo route miss",
			err:    echo.ErrNotFound,
			status: http.StatusNotFound,
			body:   `{"success":false,"error":"Not Found","message":"Not Found"}`,
		},
		{
			name:   "deadline",
			err:    context.DeadlineExceeded,
			status: http.StatusGatewayTimeout,
			body:   `{"success":false,"error":"Gateway Timeout","message":"The request timed out."}`,
		},
		{
			name:   "unknown error does not leak",
			err:    errors.New("dial tcp 10.0.0.1:3306: connection refused"),
			status: http.StatusInternalServerError,
			body:   `{"success":false,"error":"Internal Server Error","message":"An error occurred while processing your request."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(logger.Discard())(tt.err, c)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestBearerToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer abc.def")
	assert.Equal(t, "abc.def", bearerToken(e.NewContext(req, httptest.NewRecorder())))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic xyz")
	assert.Empty(t, bearerToken(e.NewContext(req, httptest.NewRecorder())))
}
