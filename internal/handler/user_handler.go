package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketdesk/internal/service"
)

// UserHandler bundles user endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} errors.SuccessResponse{data=service.Profile}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	profile, err := h.svc.Profile(ctx, userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Success", profile)
}
