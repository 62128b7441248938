// Package seed loads demo data through the regular services, so every seeded
// user and ticket leaves the same audit trail as an API call would.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"ticketdesk/internal/auth"
	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/model"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/service"
)

// Fixture is the seed file layout.
type Fixture struct {
	Users   []UserFixture   `json:"users"`
	Tickets []TicketFixture `json:"tickets"`
}

// UserFixture is one user to register.
type UserFixture struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TicketFixture is one ticket to create, owned by Creator (a username).
type TicketFixture struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Comments    string   `json:"comments"`
	Creator     string   `json:"creator"`
	Attachments []string `json:"attachments"`
}

// Stats summarises a seed run.
type Stats struct {
	UsersCreated       int
	UsersSkipped       int
	TicketsCreated     int
	TicketsSkipped     int
	AttachmentsCreated int
}

// Load reads a fixture from a local path or an http(s) URL.
func Load(ctx context.Context, source string) (*Fixture, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &fixture, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fixture source returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// Seeder applies fixtures. Re-running it is safe: existing users and
// tickets are skipped.
type Seeder struct {
	Auth        service.AuthService
	Tickets     service.TicketService
	Users       repository.UserRepository
	Attachments repository.AttachmentRepository
	Log         *slog.Logger
}

// Run registers users, then creates tickets and their attachments.
func (s *Seeder) Run(ctx context.Context, fixture *Fixture) (Stats, error) {
	var stats Stats

	for _, u := range fixture.Users {
		_, err := s.Auth.Register(ctx, u.Username, u.Password)
		switch {
		case err == nil:
			stats.UsersCreated++
		case apperrors.IsKind(err, apperrors.KindConflict):
			stats.UsersSkipped++
		default:
			return stats, fmt.Errorf("register user %q: %w", u.Username, err)
		}
	}

	for _, t := range fixture.Tickets {
		creator, err := s.Users.FindByUsername(ctx, t.Creator)
		if err != nil {
			return stats, fmt.Errorf("creator %q of ticket %q: %w", t.Creator, t.Title, err)
		}

		// Tickets are created on behalf of their creator.
		ticketCtx := auth.WithUserID(ctx, creator.ID)
		ticket, err := s.Tickets.Create(ticketCtx, service.CreateTicketInput{
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			Comments:    t.Comments,
		}, creator.ID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindConflict) {
				s.Log.Info("ticket already exists, skipping", "title", t.Title)
				stats.TicketsSkipped++
				continue
			}
			return stats, fmt.Errorf("create ticket %q: %w", t.Title, err)
		}
		stats.TicketsCreated++

		for _, url := range t.Attachments {
			attachment := &model.Attachment{FileURL: url, UserID: creator.ID, TicketID: ticket.ID}
			if err := s.Attachments.Create(ctx, attachment); err != nil {
				return stats, fmt.Errorf("attach %q to ticket %q: %w", url, t.Title, err)
			}
			stats.AttachmentsCreated++
		}
	}

	return stats, nil
}
