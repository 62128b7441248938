package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketdesk/internal/cache"
	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/model"
	"ticketdesk/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// Profile is a user with the derived ticket relationships.
type Profile struct {
	User            *model.User `json:"user"`
	CreatedTickets  int64       `json:"created_tickets"`
	AssignedTickets int64       `json:"assigned_tickets"`
}

// UserService exposes user-facing read operations.
type UserService interface {
	Profile(ctx context.Context, id string) (*Profile, error)
}

type userService struct {
	repo    repository.UserRepository
	tickets repository.TicketRepository
	cache   *cache.Client
}

// NewUserService builds a UserService with repositories and cache.
func NewUserService(repo repository.UserRepository, tickets repository.TicketRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, tickets: tickets, cache: cache}
}

func (s *userService) cacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) Profile(ctx context.Context, id string) (*Profile, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("User not found.")
		}
		return nil, storageError(err, "An error occurred while loading the profile.")
	}

	created, err := s.tickets.CountByCreator(ctx, id)
	if err != nil {
		return nil, storageError(err, "An error occurred while loading the profile.")
	}
	assigned, err := s.tickets.CountByAssignee(ctx, id)
	if err != nil {
		return nil, storageError(err, "An error occurred while loading the profile.")
	}

	return &Profile{User: user, CreatedTickets: created, AssignedTickets: assigned}, nil
}

// getUser serves the immutable user row from cache when possible.
func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}
