package service

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/metrics"
	"ticketdesk/internal/model"
	"ticketdesk/internal/repository"
)

// Audit action codes.
const (
	ActionUserRegisterSuccess = "USER_REGISTER_SUCCESS"
	ActionUserRegisterError   = "USER_REGISTER_ERROR"
	ActionUserLoginSuccess    = "USER_LOGIN_SUCCESS"
	ActionUserLoginError      = "USER_LOGIN_ERROR"
	ActionUserLogoutSuccess   = "USER_LOGOUT_SUCCESS"
	ActionCreateTicketSuccess = "CREATE_TICKET_SUCCESS"
	ActionCreateTicketError   = "CREATE_TICKET_ERROR"
	ActionDeleteTicketSuccess = "DELETE_TICKET_SUCCESS"
	ActionDeleteTicketError   = "DELETE_TICKET_ERROR"
	ActionGetTicketError      = "GET_TICKET_ERROR"
	ActionGetAllTicketsError  = "GET_ALL_TICKETS_ERROR"
	ActionGetLogsError        = "GET_LOGS_ERROR"
)

const (
	maxDetailsLength  = 255
	auditWriteTimeout = 3 * time.Second
)

// AuditService records and lists audit trail entries.
type AuditService interface {
	// Append persists one entry. The returned error is informational only;
	// callers may ignore it and the primary operation must not depend on it.
	Append(ctx context.Context, action, details string, userID *string) error
	List(ctx context.Context) ([]model.LogEntry, error)
}

type auditService struct {
	repo repository.LogRepository
	log  *slog.Logger
}

// NewAuditService creates a new audit service.
func NewAuditService(repo repository.LogRepository, log *slog.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

// Append writes on a context detached from the caller's cancellation, so a
// request that has already timed out still leaves its trail.
func (s *auditService) Append(ctx context.Context, action, details string, userID *string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("audit write panicked", "action", action, "panic", r)
			metrics.AuditWriteFailuresTotal.WithLabelValues(action).Inc()
			err = apperrors.NewInternalError("audit write failed", nil)
		}
	}()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	entry := &model.LogEntry{
		Action:  action,
		Details: truncate(details, maxDetailsLength),
		UserID:  userID,
	}
	if err := s.repo.Create(writeCtx, entry); err != nil {
		s.log.Error("failed to write audit entry", "action", action, "error", err)
		metrics.AuditWriteFailuresTotal.WithLabelValues(action).Inc()
		return err
	}
	return nil
}

func (s *auditService) List(ctx context.Context) ([]model.LogEntry, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		_ = s.Append(ctx, ActionGetLogsError, getLogsError(err), callerID(ctx))
		return nil, storageError(err, "An error occurred while fetching logs.")
	}
	return entries, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
