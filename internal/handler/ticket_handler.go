package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketdesk/internal/auth"
	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/service"
)

// TicketHandler handles ticket endpoints.
type TicketHandler struct {
	tickets service.TicketService
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(tickets service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// CreateTicketRequest represents a ticket creation request.
type CreateTicketRequest struct {
	Title       string `json:"title" example:"Printer broken"`
	Description string `json:"description" example:"Paper jam on floor 2"`
	Priority    string `json:"priority" example:"High" enums:"Low,Medium,High"`
	Comments    string `json:"comments" example:""`
}

// Create godoc
// @Summary Create a ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTicketRequest true "Ticket data"
// @Success 201 {object} errors.SuccessResponse{data=model.Ticket}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Failure 504 {object} errors.ErrorResponse
// @Router /tickets [post]
func (h *TicketHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	var req CreateTicketRequest
	if err := c.Bind(&req); err != nil {
		return h.tickets.RejectCreate(ctx, userID, errInvalidBody.Message)
	}

	ticket, err := h.tickets.Create(ctx, service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Comments:    req.Comments,
	}, userID)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, "Resource created successfully", ticket)
}

// List godoc
// @Summary List tickets, most urgent first
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} errors.SuccessResponse{data=[]model.Ticket}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Failure 504 {object} errors.ErrorResponse
// @Router /tickets/list [get]
func (h *TicketHandler) List(c echo.Context) error {
	tickets, err := h.tickets.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Success", tickets)
}

// Get godoc
// @Summary Get a ticket by id
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} errors.SuccessResponse{data=model.Ticket}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tickets/{id} [get]
func (h *TicketHandler) Get(c echo.Context) error {
	ticket, err := h.tickets.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Success", ticket)
}

// Delete godoc
// @Summary Delete a ticket
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} errors.SuccessResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tickets/{id} [delete]
func (h *TicketHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if err := h.tickets.Delete(ctx, id, userID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Ticket %s deleted", id), nil)
}

func requireCaller(ctx context.Context) (string, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", apperrors.NewUnauthorizedError("Missing Authorization Header")
	}
	return userID, nil
}
