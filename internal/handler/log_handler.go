package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketdesk/internal/service"
)

// LogHandler exposes the audit trail.
type LogHandler struct {
	audit service.AuditService
}

// NewLogHandler creates a new log handler.
func NewLogHandler(audit service.AuditService) *LogHandler {
	return &LogHandler{audit: audit}
}

// List godoc
// @Summary List audit log entries, newest first
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} errors.SuccessResponse{data=[]model.LogEntry}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /logs [get]
func (h *LogHandler) List(c echo.Context) error {
	entries, err := h.audit.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Success", entries)
}
