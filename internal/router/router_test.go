package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ticketdesk/internal/auth"
	"ticketdesk/internal/config"
	"ticketdesk/internal/handler"
	"ticketdesk/internal/logger"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/service"
	"ticketdesk/internal/testutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type ticketView struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	Priority   string  `json:"priority"`
	UserID     string  `json:"user_id"`
	AssigneeID *string `json:"assignee_id"`
	Creator    *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"creator"`
	Attachments []json.RawMessage `json:"attachments"`
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	gormDB := testutil.NewDB(t)
	log := logger.Discard()
	cfg := &config.Config{RequestTimeout: 5 * time.Second, LoginRateLimit: 10}

	users := repository.NewUserRepository(gormDB)
	tickets := repository.NewTicketRepository(gormDB)
	audit := service.NewAuditService(repository.NewLogRepository(gormDB), log)

	jwtService := auth.NewJWTService("test-secret")
	tokenStore := auth.NewTokenStore(nil)

	authService := service.NewAuthService(users, auth.NewBcryptHasher(bcrypt.MinCost), jwtService, tokenStore, audit, log)
	ticketService := service.NewTicketService(repository.NewTxManager(gormDB), tickets, users, audit, nil, log)
	userService := service.NewUserService(users, tickets, nil)

	e := echo.New()
	Register(e, cfg, log, jwtService, tokenStore, nil,
		handler.NewAuthHandler(authService),
		handler.NewTicketHandler(ticketService),
		handler.NewLogHandler(audit),
		handler.NewUserHandler(userService),
	)
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, body, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	code, env := call(t, e, http.MethodPost, "/api/auth", `{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, code)
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func TestRegistrationAndLogin(t *testing.T) {
	e := newServer(t)

	code, env := call(t, e, http.MethodPost, "/api/users/register", `{"username":"alice","password":"pw123"}`, "")
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)
	assert.NotContains(t, string(env.Data), "password")

	code, env = call(t, e, http.MethodPost, "/api/users/register", `{"username":"alice","password":"other"}`, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Conflict", env.Error)

	code, env = call(t, e, http.MethodPost, "/api/users/register", `{"username":"bob"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing username or password", env.Message)

	code, env = call(t, e, http.MethodPost, "/api/auth", `{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", env.Error)

	code, env = call(t, e, http.MethodPost, "/api/auth", `{"username":"alice","password":"pw123"}`, "")
	require.Equal(t, http.StatusOK, code)
	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.AccessToken)
	assert.NotEmpty(t, data.RefreshToken)
	assert.Equal(t, "alice", data.User.Username)

	code, _ = call(t, e, http.MethodPost, "/api/auth/logout", `{"refresh_token":"`+data.RefreshToken+`"}`, data.AccessToken)
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, e, http.MethodPost, "/api/auth/refresh", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Bad Request", env.Error)
}

func TestTicketLifecycle(t *testing.T) {
	e := newServer(t)

	code, _ := call(t, e, http.MethodPost, "/api/users/register", `{"username":"alice","password":"pw123"}`, "")
	require.Equal(t, http.StatusCreated, code)
	token := login(t, e, "alice", "pw123")

	const printer = `{"title":"Printer broken","description":"Paper jam","priority":"High"}`

	code, env := call(t, e, http.MethodPost, "/api/tickets", printer, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Missing Authorization Header", env.Message)

	code, env = call(t, e, http.MethodPost, "/api/tickets", printer, token)
	require.Equal(t, http.StatusCreated, code)
	var created ticketView
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Open", created.Status)
	assert.Equal(t, "High", created.Priority)
	assert.Nil(t, created.AssigneeID)
	require.NotNil(t, created.Creator)
	assert.Equal(t, "alice", created.Creator.Username)
	assert.Equal(t, created.Creator.ID, created.UserID)
	assert.NotNil(t, created.Attachments)

	code, env = call(t, e, http.MethodPost, "/api/tickets", printer, token)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Ticket with title 'Printer broken' already exists.", env.Message)

	code, env = call(t, e, http.MethodPost, "/api/tickets", `{"title":"No body"}`, token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing required fields: description, priority", env.Message)

	code, _ = call(t, e, http.MethodPost, "/api/tickets", `{"title":"Mouse","description":"Dead","priority":"Baixa"}`, token)
	require.Equal(t, http.StatusCreated, code)

	code, env = call(t, e, http.MethodGet, "/api/tickets/list", "", token)
	require.Equal(t, http.StatusOK, code)
	var list []ticketView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Printer broken", list[0].Title, "High sorts before Low")
	assert.Equal(t, "Low", list[1].Priority)

	code, env = call(t, e, http.MethodGet, "/api/tickets/"+created.ID, "", token)
	require.Equal(t, http.StatusOK, code)
	var got ticketView
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.ID, got.ID)

	code, env = call(t, e, http.MethodDelete, "/api/tickets/xyz", "", token)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", env.Error)

	code, env = call(t, e, http.MethodDelete, "/api/tickets/"+created.ID, "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ticket "+created.ID+" deleted", env.Message)

	code, _ = call(t, e, http.MethodGet, "/api/tickets/"+created.ID, "", token)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = call(t, e, http.MethodGet, "/api/tickets/list", "", token)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.NotEqual(t, created.ID, list[0].ID)

	code, env = call(t, e, http.MethodGet, "/api/logs", "", token)
	require.Equal(t, http.StatusOK, code)
	var logs []struct {
		Action string  `json:"action"`
		UserID *string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	actions := make([]string, len(logs))
	for i, l := range logs {
		actions[i] = l.Action
	}
	assert.Equal(t, []string{
		service.ActionDeleteTicketSuccess,
		service.ActionDeleteTicketError,
		service.ActionCreateTicketSuccess,
		service.ActionCreateTicketError,
		service.ActionCreateTicketError,
		service.ActionCreateTicketSuccess,
		service.ActionUserLoginSuccess,
		service.ActionUserRegisterSuccess,
	}, actions)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, created.UserID, *logs[0].UserID)

	code, env = call(t, e, http.MethodGet, "/api/users/me", "", token)
	require.Equal(t, http.StatusOK, code)
	var profile struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		CreatedTickets int `json:"created_tickets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "alice", profile.User.Username)
	assert.Equal(t, 1, profile.CreatedTickets)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	e := newServer(t)

	code, env := call(t, e, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Not Found", env.Error)
}

func TestHealthz(t *testing.T) {
	e := newServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCreateTicket_MalformedBodyIsAudited(t *testing.T) {
	e := newServer(t)

	code, _ := call(t, e, http.MethodPost, "/api/users/register", `{"username":"alice","password":"pw123"}`, "")
	require.Equal(t, http.StatusCreated, code)
	token := login(t, e, "alice", "pw123")

	code, env := call(t, e, http.MethodPost, "/api/tickets", `{"title":`, token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", env.Message)

	code, env = call(t, e, http.MethodGet, "/api/logs", "", token)
	require.Equal(t, http.StatusOK, code)
	var logs []struct {
		Action  string  `json:"action"`
		Details string  `json:"details"`
		UserID  *string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))

	var rejected int
	for _, l := range logs {
		if l.Action != service.ActionCreateTicketError {
			continue
		}
		rejected++
		assert.Equal(t, "Invalid request body", l.Details)
		assert.NotNil(t, l.UserID)
	}
	assert.Equal(t, 1, rejected)
}
