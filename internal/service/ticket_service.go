package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"ticketdesk/internal/cache"
	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/metrics"
	"ticketdesk/internal/model"
	"ticketdesk/internal/repository"
)

const (
	ticketCacheTTL     = 5 * time.Minute
	ticketTombstoneTTL = 2 * ticketCacheTTL
	maxCommentsLength  = 300
	creatorNotFoundMsg = "User (creator) not found. Invalid token."
)

// CreateTicketInput carries the caller-supplied fields of a new ticket.
// Priority is the label as received; it is parsed by the service.
type CreateTicketInput struct {
	Title       string
	Description string
	Priority    string
	Comments    string
}

// TicketService orchestrates ticket persistence and the audit trail.
type TicketService interface {
	Create(ctx context.Context, input CreateTicketInput, creatorID string) (*model.Ticket, error)
	RejectCreate(ctx context.Context, creatorID, message string) error
	Get(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context) ([]model.Ticket, error)
	Delete(ctx context.Context, id, requesterID string) error
}

type ticketService struct {
	tx      repository.TxManager
	tickets repository.TicketRepository
	users   repository.UserRepository
	audit   AuditService
	cache   *cache.Client
	log     *slog.Logger
}

// NewTicketService creates a new ticket service. cache may be nil.
func NewTicketService(
	tx repository.TxManager,
	tickets repository.TicketRepository,
	users repository.UserRepository,
	audit AuditService,
	cache *cache.Client,
	log *slog.Logger,
) TicketService {
	return &ticketService{
		tx:      tx,
		tickets: tickets,
		users:   users,
		audit:   audit,
		cache:   cache,
		log:     log,
	}
}

// ticketTombstone marks a deleted ticket in the cache. It is not valid JSON,
// so it never decodes as a ticket.
var ticketTombstone = []byte("deleted")

func ticketCacheKey(id string) string {
	return fmt.Sprintf("ticket:%s", id)
}

// Create validates input and inserts the ticket in one transaction. Exactly
// one audit entry is written afterwards, describing the outcome.
func (s *ticketService) Create(ctx context.Context, input CreateTicketInput, creatorID string) (*model.Ticket, error) {
	ticket, err := s.create(ctx, input, creatorID)
	if err != nil {
		var auditUser *string
		if !apperrors.IsKind(err, apperrors.KindNotFound) {
			auditUser = userRef(creatorID)
		}
		_ = s.audit.Append(ctx, ActionCreateTicketError, createFailureDetails(err, input.Title), auditUser)
		metrics.TicketOperationsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}

	_ = s.audit.Append(ctx, ActionCreateTicketSuccess, createTicketSuccess(ticket.ID, ticket.Title), userRef(creatorID))
	metrics.TicketOperationsTotal.WithLabelValues("create", "success").Inc()
	return ticket, nil
}

// RejectCreate records a create request that never reached validation, such
// as one whose body could not be decoded, and returns it as a bad request.
func (s *ticketService) RejectCreate(ctx context.Context, creatorID, message string) error {
	_ = s.audit.Append(ctx, ActionCreateTicketError, message, userRef(creatorID))
	metrics.TicketOperationsTotal.WithLabelValues("create", "error").Inc()
	return apperrors.NewValidationError(message)
}

func (s *ticketService) create(ctx context.Context, input CreateTicketInput, creatorID string) (*model.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	priority, err := validateCreateInput(title, input)
	if err != nil {
		return nil, err
	}

	var ticket *model.Ticket
	err = s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		creator, err := s.users.FindByID(ctx, creatorID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return apperrors.NewNotFoundError(creatorNotFoundMsg)
			}
			return err
		}

		exists, err := s.tickets.ExistsByTitle(ctx, title)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewConflictError(ticketAlreadyExists(title))
		}

		t := &model.Ticket{
			Title:       title,
			Description: input.Description,
			Status:      model.TicketStatusOpen,
			Priority:    priority,
			Comments:    input.Comments,
			CreatorID:   creator.ID,
		}
		if err := s.tickets.Insert(ctx, t); err != nil {
			// A concurrent insert can win after the pre-check.
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflictError(ticketAlreadyExists(title))
			}
			return err
		}
		t.Creator = creator
		t.Attachments = []model.Attachment{}
		ticket = t
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		s.log.ErrorContext(ctx, "create ticket failed", "title", title, "error", err)
		return nil, storageError(err, "An error occurred while creating the ticket.")
	}
	return ticket, nil
}

func validateCreateInput(title string, input CreateTicketInput) (model.Priority, error) {
	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(input.Priority) == "" {
		missing = append(missing, "priority")
	}
	if len(missing) > 0 {
		return 0, apperrors.NewValidationError("Missing required fields: " + strings.Join(missing, ", "))
	}

	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return 0, apperrors.NewValidationError(fmt.Sprintf("Title must be at most %d characters.", model.MaxTitleLength))
	}
	if utf8.RuneCountInString(input.Comments) > maxCommentsLength {
		return 0, apperrors.NewValidationError(fmt.Sprintf("Comments must be at most %d characters.", maxCommentsLength))
	}

	priority, err := model.ParsePriority(input.Priority)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("Invalid priority '%s'. Allowed values: Low, Medium, High.", input.Priority))
	}
	return priority, nil
}

func createFailureDetails(err error, title string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperrors.KindConflict, apperrors.KindValidation, apperrors.KindNotFound:
			return appErr.Message
		}
		if cause := errors.Unwrap(appErr); cause != nil {
			err = cause
		}
	}
	return createTicketError(err, title)
}

// Get returns one ticket. Reads are served from the cache when possible.
// A read that raced a delete may only fill an empty key, so it can never
// replace the tombstone the delete left behind.
func (s *ticketService) Get(ctx context.Context, id string) (*model.Ticket, error) {
	key := ticketCacheKey(id)

	if data, _ := s.cache.Get(ctx, key); data != nil {
		if bytes.Equal(data, ticketTombstone) {
			return nil, apperrors.NewNotFoundError(ticketNotFound(id))
		}
		var cached model.Ticket
		if json.Unmarshal(data, &cached) == nil {
			return &cached, nil
		}
	}

	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(ticketNotFound(id))
		}
		s.log.ErrorContext(ctx, "get ticket failed", "ticket_id", id, "error", err)
		_ = s.audit.Append(ctx, ActionGetTicketError, getTicketError(err, id), callerID(ctx))
		return nil, storageError(err, "An error occurred while retrieving the ticket.")
	}

	s.cache.SetJSONIfAbsent(ctx, key, ticket, ticketCacheTTL)
	return ticket, nil
}

// List returns every ticket, most urgent first.
func (s *ticketService) List(ctx context.Context) ([]model.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "list tickets failed", "error", err)
		_ = s.audit.Append(ctx, ActionGetAllTicketsError, getAllTicketsError(err), callerID(ctx))
		return nil, storageError(err, "An error occurred while processing your request to list tickets")
	}
	return tickets, nil
}

// Delete physically removes a ticket. Any authenticated requester may delete
// any ticket.
func (s *ticketService) Delete(ctx context.Context, id, requesterID string) error {
	var title string
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return apperrors.NewNotFoundError(deleteTicketNotFound(id))
			}
			return err
		}
		title = ticket.Title

		removed, err := s.tickets.DeleteByID(ctx, id)
		if err != nil {
			return err
		}
		if !removed {
			return apperrors.NewNotFoundError(deleteTicketNotFound(id))
		}
		return nil
	})

	if err != nil {
		metrics.TicketOperationsTotal.WithLabelValues("delete", "error").Inc()
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			_ = s.audit.Append(ctx, ActionDeleteTicketError, deleteTicketNotFound(id), userRef(requesterID))
			return err
		}
		s.log.ErrorContext(ctx, "delete ticket failed", "ticket_id", id, "error", err)
		_ = s.audit.Append(ctx, ActionDeleteTicketError, deleteTicketError(err, id), userRef(requesterID))
		return storageError(err, "An error occurred while deleting the ticket.")
	}

	// Ids are never reused, so the tombstone can outlive any cached copy.
	_ = s.cache.Set(ctx, ticketCacheKey(id), ticketTombstone, ticketTombstoneTTL)
	_ = s.audit.Append(ctx, ActionDeleteTicketSuccess, deleteTicketSuccess(id, title), userRef(requesterID))
	metrics.TicketOperationsTotal.WithLabelValues("delete", "success").Inc()
	return nil
}
